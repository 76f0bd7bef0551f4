package matching

type StudentID string
type FellowshipID string

const (
	// DefaultCapacity applies when a data source leaves capacity unspecified.
	DefaultCapacity = 1

	// MutualRankLimit is how deep into either preference list a pair may sit
	// and still be matched.
	MutualRankLimit = 2
)

// Fellowship is a fellowship as the matcher sees it.
type Fellowship struct {
	ID       FellowshipID
	Capacity int
}

// Input is the read-only snapshot a run is computed against.
// Missing map entries are treated as empty preference lists.
type Input struct {
	Students     []StudentID
	Fellowships  []Fellowship
	StudentPrefs map[StudentID][]FellowshipID
	FacultyPrefs map[FellowshipID][]StudentID
}

// Pair is one matched (fellowship, student) assignment.
type Pair struct {
	Fellowship FellowshipID `json:"fellowship_id"`
	Student    StudentID    `json:"student_id"`
}

// Stats counts what happened during a run.
type Stats struct {
	Proposals  int // proposals inside the rank window
	Rejections int // proposals turned down by faculty rank or a full roster
	Evictions  int // holders displaced by a strictly better proposer
	Skipped    int // proposals past the rank window
}
