package store

// Schema is created idempotently at open. Questions and answers are stored
// as JSON columns: both are immutable blobs read and written whole, never
// queried by field.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS question_papers (
	id         TEXT PRIMARY KEY,
	faculty_id TEXT NOT NULL,
	title      TEXT NOT NULL,
	questions  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	paper_id     TEXT NOT NULL REFERENCES question_papers(id),
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL,
	answers      TEXT NOT NULL,
	score        INTEGER NOT NULL,
	submitted_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_papers_created_at
	ON question_papers(created_at);
CREATE INDEX IF NOT EXISTS idx_submissions_paper
	ON submissions(paper_id, score DESC);
`
