package history

// Schema is portable between sqlite3 and postgres. created_at holds unix
// nanoseconds so ordering never depends on driver time handling.
const Schema = `
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	pair TEXT NOT NULL,
	direction TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	rationale TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);
CREATE INDEX IF NOT EXISTS idx_signals_pair_created_at ON signals(pair, created_at);
`
