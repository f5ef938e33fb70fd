package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS insights (
    id                   TEXT PRIMARY KEY,
    created_at           TEXT NOT NULL,
    dataset              TEXT NOT NULL,
    row_count            INTEGER NOT NULL,
    column_count         INTEGER NOT NULL,
    mode                 TEXT NOT NULL,
    model                TEXT,
    question             TEXT,
    answer               TEXT NOT NULL,
    ok                   INTEGER NOT NULL DEFAULT 1,
    elapsed_ms           INTEGER
);

CREATE INDEX IF NOT EXISTS idx_insights_created ON insights(created_at);
CREATE INDEX IF NOT EXISTS idx_insights_dataset ON insights(dataset);
`
