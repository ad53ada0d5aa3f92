package migrate

// DefaultCatalog is the schema history of the local registry store.
func DefaultCatalog() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create schema_migrations",
			Up: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  description TEXT NOT NULL,
  applied_at TEXT NOT NULL,
  checksum TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schema_migrations_applied_at ON schema_migrations(applied_at);
`,
		},
		{
			Version:     2,
			Description: "create projects",
			Up: `
CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  path TEXT NOT NULL,
  template TEXT,
  registered_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_projects_path ON projects(path);
CREATE TRIGGER IF NOT EXISTS trg_projects_updated_at
AFTER UPDATE ON projects
FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
BEGIN
  UPDATE projects SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = NEW.id;
END;
`,
			Down: `
DROP TRIGGER IF EXISTS trg_projects_updated_at;
DROP INDEX IF EXISTS idx_projects_path;
DROP TABLE IF EXISTS projects;
`,
		},
		{
			Version:     3,
			Description: "create templates",
			Up: `
CREATE TABLE IF NOT EXISTS templates (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  path TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  metadata TEXT
);
CREATE TRIGGER IF NOT EXISTS trg_templates_updated_at
AFTER UPDATE ON templates
FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
BEGIN
  UPDATE templates SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = NEW.id;
END;
`,
			Down: `
DROP TRIGGER IF EXISTS trg_templates_updated_at;
DROP TABLE IF EXISTS templates;
`,
		},
		{
			Version:     4,
			Description: "create configuration",
			Up: `
CREATE TABLE IF NOT EXISTS configuration (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('string', 'number', 'boolean', 'json')),
  description TEXT,
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE TRIGGER IF NOT EXISTS trg_configuration_updated_at
AFTER UPDATE ON configuration
FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
BEGIN
  UPDATE configuration SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE key = NEW.key;
END;
INSERT OR IGNORE INTO configuration (key, value, type, description) VALUES
  ('version', '0.1.0', 'string', 'Store format version'),
  ('auto_update', 'true', 'boolean', 'Check for updates automatically'),
  ('telemetry_enabled', 'false', 'boolean', 'Send anonymous usage data');
`,
			Down: `
DROP TRIGGER IF EXISTS trg_configuration_updated_at;
DROP TABLE IF EXISTS configuration;
`,
		},
	}
}
