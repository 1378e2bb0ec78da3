package db

// Schema returns the statements that create scan_events and its indexes.
// Every statement is idempotent; there is no migration history.
func Schema(d Dialect) []string {
	switch d {
	case MySQL:
		return []string{`
CREATE TABLE IF NOT EXISTS scan_events (
  id INT NOT NULL AUTO_INCREMENT,
  ` + "`timestamp`" + ` DATETIME(6) NOT NULL,
  project_name VARCHAR(255) NOT NULL,
  file_path VARCHAR(500) NOT NULL,
  secret_type VARCHAR(100) NOT NULL,
  confidence DOUBLE NOT NULL,
  line_number INT NOT NULL,
  preview TEXT NULL,
  created_at DATETIME(6) NOT NULL,
  PRIMARY KEY (id),
  INDEX ix_scan_events_timestamp (` + "`timestamp`" + `),
  INDEX ix_scan_events_project_name (project_name),
  INDEX ix_scan_events_secret_type (secret_type)
) CHARACTER SET utf8mb4;`}
	case SQLite:
		return []string{`
CREATE TABLE IF NOT EXISTS scan_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  "timestamp" DATETIME NOT NULL,
  project_name VARCHAR(255) NOT NULL,
  file_path VARCHAR(500) NOT NULL,
  secret_type VARCHAR(100) NOT NULL,
  confidence REAL NOT NULL,
  line_number INTEGER NOT NULL,
  preview TEXT NULL,
  created_at DATETIME NOT NULL
);`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_timestamp ON scan_events ("timestamp");`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_project_name ON scan_events (project_name);`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_secret_type ON scan_events (secret_type);`,
		}
	default:
		return []string{`
CREATE TABLE IF NOT EXISTS scan_events (
  id SERIAL PRIMARY KEY,
  "timestamp" TIMESTAMP NOT NULL,
  project_name VARCHAR(255) NOT NULL,
  file_path VARCHAR(500) NOT NULL,
  secret_type VARCHAR(100) NOT NULL,
  confidence DOUBLE PRECISION NOT NULL,
  line_number INTEGER NOT NULL,
  preview TEXT NULL,
  created_at TIMESTAMP NOT NULL
);`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_timestamp ON scan_events ("timestamp");`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_project_name ON scan_events (project_name);`,
			`CREATE INDEX IF NOT EXISTS ix_scan_events_secret_type ON scan_events (secret_type);`,
		}
	}
}
