package database

// schema holds the full SQLite schema. Statements are idempotent so Migrate
// can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    name               TEXT NOT NULL UNIQUE,
    allocation_percent REAL NOT NULL DEFAULT 0,
    min_positions      INTEGER NOT NULL DEFAULT 1,
    desired_positions  INTEGER,
    even_split         INTEGER NOT NULL DEFAULT 0,
    sort_order         INTEGER NOT NULL DEFAULT 0,
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS positions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    portfolio_id   INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
    name           TEXT NOT NULL,
    identifier     TEXT,
    sector         TEXT,
    weight         REAL NOT NULL DEFAULT 0,
    current_value  REAL NOT NULL DEFAULT 0,
    security_type  TEXT,
    sort_order     INTEGER NOT NULL DEFAULT 0,
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_positions_portfolio ON positions(portfolio_id);

CREATE TABLE IF NOT EXISTS allocation_rules (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    max_per_stock   REAL NOT NULL DEFAULT 5.0,
    max_per_etf     REAL NOT NULL DEFAULT 10.0,
    max_per_crypto  REAL NOT NULL DEFAULT 5.0,
    max_per_sector  REAL NOT NULL DEFAULT 25.0,
    max_per_country REAL NOT NULL DEFAULT 10.0,
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO allocation_rules (id) VALUES (1);

CREATE TABLE IF NOT EXISTS simulations (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    mode       TEXT NOT NULL,
    amount     REAL NOT NULL DEFAULT 0,
    plan_json  TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS portfolio_snapshots (
    date            TEXT PRIMARY KEY,
    total_value     REAL NOT NULL,
    portfolio_count INTEGER NOT NULL DEFAULT 0,
    position_count  INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`
