package sqlstore

// schema covers the portal tables the matcher reads and writes. Columns the
// portal keeps for its web pages (names, deadlines, résumés) are left out.
const schema = `
CREATE TABLE IF NOT EXISTS fellowships (
	fellowship_id INTEGER PRIMARY KEY,
	name TEXT,
	capacity INTEGER
);

CREATE TABLE IF NOT EXISTS applications (
	application_id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_net_id TEXT NOT NULL,
	fellowship_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS student_preferences (
	student_net_id TEXT NOT NULL,
	fellowship_id INTEGER NOT NULL,
	preference_rank INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS faculty_preferences (
	fellowship_id INTEGER NOT NULL,
	student_net_id TEXT NOT NULL,
	preference_rank INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	fellowship_id INTEGER NOT NULL,
	student_net_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_student_preferences ON student_preferences(student_net_id, preference_rank);
CREATE INDEX IF NOT EXISTS idx_faculty_preferences ON faculty_preferences(fellowship_id, preference_rank);
`
