package journal

import "time"

type RecordType uint8

const (
	RecordRun RecordType = iota + 1
	RecordStudentPrefs
	RecordFacultyPrefs
	RecordFellowship
	RecordApplication
	RecordFellowshipDeleted
	RecordApplicationWithdrawn
)

func (t RecordType) String() string {
	switch t {
	case RecordRun:
		return "run"
	case RecordStudentPrefs:
		return "student-prefs"
	case RecordFacultyPrefs:
		return "faculty-prefs"
	case RecordFellowship:
		return "fellowship"
	case RecordApplication:
		return "application"
	case RecordFellowshipDeleted:
		return "fellowship-deleted"
	case RecordApplicationWithdrawn:
		return "application-withdrawn"
	default:
		return "unknown"
	}
}

// Record is an immutable journal entry.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
