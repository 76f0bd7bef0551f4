package outbox

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func pendingSeqs(t *testing.T, o *Outbox, maxRetries uint32) []uint64 {
	t.Helper()
	var out []uint64
	require.NoError(t, o.ScanPending(maxRetries, func(r Record) error {
		out = append(out, r.Seq)
		return nil
	}))
	return out
}

func TestOutboxLifecycle(t *testing.T) {
	o := openTestOutbox(t)

	require.NoError(t, o.PutNew(12, []byte(`{"seq":12}`)))
	require.NoError(t, o.PutNew(3, []byte(`{"seq":3}`)))

	require.Equal(t, []uint64{3, 12}, pendingSeqs(t, o, 0))

	require.NoError(t, o.MarkSent(3))
	rec, err := o.Get(3)
	require.NoError(t, err)
	require.Equal(t, StateSent, rec.State)
	require.NotZero(t, rec.LastAttempt)
	require.Equal(t, []byte(`{"seq":3}`), rec.Payload)

	require.NoError(t, o.MarkAcked(3))
	require.Equal(t, []uint64{12}, pendingSeqs(t, o, 0))

	n, err := o.DeleteAcked()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = o.Get(3)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestOutboxRetryLimit(t *testing.T) {
	o := openTestOutbox(t)
	require.NoError(t, o.PutNew(1, nil))

	require.NoError(t, o.MarkFailed(1))
	require.NoError(t, o.MarkFailed(1))
	require.Equal(t, []uint64{1}, pendingSeqs(t, o, 3))

	require.NoError(t, o.MarkFailed(1))
	require.Empty(t, pendingSeqs(t, o, 3))
	require.Equal(t, []uint64{1}, pendingSeqs(t, o, 0))

	counts, err := o.Counts()
	require.NoError(t, err)
	require.Equal(t, map[State]int{StateFailed: 1}, counts)
}

func TestOutboxUpdateMissing(t *testing.T) {
	o := openTestOutbox(t)
	require.True(t, errors.Is(o.MarkSent(99), ErrNotFound))
}
