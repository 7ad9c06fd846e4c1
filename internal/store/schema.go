package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    run_at               TEXT NOT NULL,
    status               TEXT NOT NULL,
    total_requirement    INTEGER,
    total_funding        REAL,
    total_unfunded       REAL,
    coverage_pct         REAL,
    pledges              REAL,
    plan_count           INTEGER,
    matched              INTEGER,
    unmatched            INTEGER,
    skipped_api_rows     INTEGER,
    duration_ms          INTEGER,
    error                TEXT
);

CREATE TABLE IF NOT EXISTS plan_snapshots (
    run_id               INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    plan                 TEXT NOT NULL,
    plan_type            TEXT,
    requirement          INTEGER,
    funding              REAL,
    coverage_pct         REAL,
    matched              INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, plan)
);

CREATE INDEX IF NOT EXISTS idx_runs_run_at ON runs(run_at);
`
