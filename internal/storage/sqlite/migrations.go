package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Evaluation history, append-only
CREATE TABLE IF NOT EXISTS evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	slo_name TEXT NOT NULL,
	value REAL,
	verdict TEXT NOT NULL,
	evaluated_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_evaluations_slo_name ON evaluations(slo_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_verdict ON evaluations(verdict);
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at DESC);
`
