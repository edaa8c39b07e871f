package postgres

// Schema defines the PostgreSQL database schema
const Schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id BIGSERIAL PRIMARY KEY,
	slo_name VARCHAR(255) NOT NULL,
	value DOUBLE PRECISION,
	verdict VARCHAR(16) NOT NULL,
	evaluated_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_evaluations_slo_name ON evaluations(slo_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_verdict ON evaluations(verdict);
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at DESC);
`
