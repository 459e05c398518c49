package store

// migration holds a single schema migration: a target version and the
// ordered statements that produce it. The list is append-only; historical
// entries are never edited. New schema changes always get a new entry with
// the next version number.
type migration struct {
	version    int
	statements []string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS action_classes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	color      TEXT NOT NULL DEFAULT '',
	emoji      TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS activities (
	id              TEXT PRIMARY KEY,
	action_class_id TEXT NOT NULL REFERENCES action_classes(id),
	start_time      DATETIME NOT NULL,
	end_time        DATETIME,
	description     TEXT NOT NULL DEFAULT '',
	duration_ms     INTEGER,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'todo' CHECK(status IN ('todo', 'in_progress', 'done')),
	completed       INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	priority        INTEGER NOT NULL DEFAULT 2 CHECK(priority BETWEEN 1 AND 4),
	action_class_id TEXT REFERENCES action_classes(id) ON DELETE SET NULL,
	start_date      DATETIME,
	start_time      TEXT,
	due_date        DATETIME,
	due_time        TEXT,
	sort_order      INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS daily_forms (
	form_date  TEXT PRIMARY KEY,
	mood       INTEGER,
	thoughts   TEXT NOT NULL DEFAULT '',
	highlights TEXT NOT NULL DEFAULT '',
	gratitude  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE INDEX IF NOT EXISTS idx_activities_action_class ON activities(action_class_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_sort_order ON tasks(sort_order)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS recurring_templates (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	pattern_type     TEXT NOT NULL CHECK(pattern_type IN ('daily', 'every_other_day', 'weekdays')),
	pattern_days     TEXT NOT NULL DEFAULT '[]',
	every_other_seed DATETIME,
	active           INTEGER NOT NULL DEFAULT 1 CHECK(active IN (0, 1)),
	priority         INTEGER NOT NULL DEFAULT 2 CHECK(priority BETWEEN 1 AND 4),
	action_class_id  TEXT REFERENCES action_classes(id) ON DELETE SET NULL,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`ALTER TABLE tasks ADD COLUMN template_id TEXT REFERENCES recurring_templates(id)`,
			`ALTER TABLE tasks ADD COLUMN is_generated INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE tasks ADD COLUMN source_generation_date DATETIME`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_template_due ON tasks(template_id, due_date)`,
		},
	},
	{
		version: 3,
		statements: []string{
			`ALTER TABLE tasks ADD COLUMN reminder_notification_id TEXT`,
			`ALTER TABLE daily_forms ADD COLUMN additional_fields TEXT NOT NULL DEFAULT '{}'`,
			`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_activities_open ON activities(end_time) WHERE end_time IS NULL`,
		},
	},
}

// SkippedStatement records a migration statement that failed and was
// skipped by the tolerant runner.
type SkippedStatement struct {
	Version   int
	Index     int
	Statement string
	Err       error
}

// MigrationReport summarizes one migration run: which versions were
// applied and which individual statements were skipped. Skipped statements
// usually mean a partial prior run ("column already exists"), but they can
// also hide real schema drift, so callers should log them.
type MigrationReport struct {
	Applied []int
	Skipped []SkippedStatement
}
