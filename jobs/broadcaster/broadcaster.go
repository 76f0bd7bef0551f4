// Package broadcaster drains the outbox into a Kafka publisher.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fellowmatch/infra/kafka"
	"fellowmatch/infra/outbox"
)

type Config struct {
	Interval       time.Duration
	MaxRetries     uint32
	PublishTimeout time.Duration
	// RetryBackoff holds a FAILED record back until this long after its
	// last attempt. Zero retries on every tick.
	RetryBackoff time.Duration
	// Observer, if set, is told about every delivery attempt.
	Observer DeliveryObserver
}

type DeliveryObserver interface {
	Delivered(ok bool)
	// Backlog reports the records still waiting after a flush.
	Backlog(n int)
}

type Broadcaster struct {
	outbox    *outbox.Outbox
	publisher kafka.Publisher
	cfg       Config
	log       *zap.Logger
	now       func() time.Time
}

func New(ob *outbox.Outbox, p kafka.Publisher, cfg Config, log *zap.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	return &Broadcaster{
		outbox:    ob,
		publisher: p,
		cfg:       cfg,
		log:       log.Named("broadcaster"),
		now:       time.Now,
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run flushes the outbox every interval until ctx is done. It always
// returns nil; delivery failures are retried on the next tick.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.Info("started", zap.Duration("interval", b.cfg.Interval))
	defer b.log.Info("stopped")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// ------------------------------------------------
// FLUSH
// ------------------------------------------------

// Flush makes one delivery attempt for every pending record that is not
// backing off and returns how many were acknowledged.
func (b *Broadcaster) Flush(ctx context.Context) int {
	acked := 0
	err := b.outbox.ScanPending(b.cfg.MaxRetries, func(rec outbox.Record) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if b.backingOff(rec) {
			return nil
		}

		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		pctx, cancel := context.WithTimeout(ctx, b.cfg.PublishTimeout)
		err := b.publisher.Publish(pctx, []byte(strconv.FormatUint(rec.Seq, 10)), rec.Payload)
		cancel()
		if b.cfg.Observer != nil {
			b.cfg.Observer.Delivered(err == nil)
		}
		if err != nil {
			b.log.Warn("publish failed",
				zap.Uint64("seq", rec.Seq),
				zap.Uint32("retries", rec.Retries),
				zap.Error(err),
			)
			return b.outbox.MarkFailed(rec.Seq)
		}

		acked++
		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil && ctx.Err() == nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}

	if acked > 0 {
		if _, err := b.outbox.DeleteAcked(); err != nil {
			b.log.Error("outbox cleanup failed", zap.Error(err))
		}
		b.log.Debug("flushed", zap.Int("acked", acked))
	}
	b.reportBacklog()
	return acked
}

func (b *Broadcaster) backingOff(rec outbox.Record) bool {
	if rec.State != outbox.StateFailed || b.cfg.RetryBackoff <= 0 {
		return false
	}
	return b.now().Sub(time.Unix(0, rec.LastAttempt)) < b.cfg.RetryBackoff
}

func (b *Broadcaster) reportBacklog() {
	if b.cfg.Observer == nil {
		return
	}
	counts, err := b.outbox.Counts()
	if err != nil {
		b.log.Warn("outbox count failed", zap.Error(err))
		return
	}
	n := 0
	for state, c := range counts {
		if state != outbox.StateAcked {
			n += c
		}
	}
	b.cfg.Observer.Backlog(n)
}
