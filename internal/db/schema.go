package db

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	id TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
);
`

// initialSchema is the v1_initial migration. Table, column and index names are
// shared with existing index files and must not change.
const initialSchema = `
CREATE TABLE categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE prompts (
	row_seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	file_path TEXT NOT NULL UNIQUE,
	category_id TEXT REFERENCES categories(id) ON DELETE RESTRICT,
	is_favorite BOOLEAN NOT NULL DEFAULT 0,
	is_archived BOOLEAN NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL,
	body_cache TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	last_used_at TEXT
);

CREATE TABLE prompt_tags (
	prompt_id TEXT NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (prompt_id, tag_id)
);

CREATE TABLE workflows (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE workflow_steps (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	prompt_id TEXT NOT NULL REFERENCES prompts(id) ON DELETE RESTRICT,
	order_index INTEGER NOT NULL,
	step_notes TEXT,
	variable_overrides TEXT
);

CREATE UNIQUE INDEX tags_name_nocase ON tags(name COLLATE NOCASE);
CREATE UNIQUE INDEX categories_name_nocase ON categories(name COLLATE NOCASE);
CREATE INDEX prompts_category_id ON prompts(category_id);
CREATE INDEX prompts_is_favorite ON prompts(is_favorite);
CREATE INDEX prompts_is_archived ON prompts(is_archived);
CREATE INDEX prompts_updated_at ON prompts(updated_at);
CREATE INDEX prompt_tags_tag_id ON prompt_tags(tag_id);
CREATE INDEX workflow_steps_workflow_id ON workflow_steps(workflow_id);
CREATE INDEX workflow_steps_prompt_id ON workflow_steps(prompt_id);

CREATE VIRTUAL TABLE prompts_fts USING fts5(
	title,
	body_cache,
	content = 'prompts',
	content_rowid = 'row_seq'
);

CREATE TRIGGER prompts_ai AFTER INSERT ON prompts BEGIN
	INSERT INTO prompts_fts(rowid, title, body_cache) VALUES (new.row_seq, new.title, new.body_cache);
END;

CREATE TRIGGER prompts_ad AFTER DELETE ON prompts BEGIN
	INSERT INTO prompts_fts(prompts_fts, rowid, title, body_cache) VALUES ('delete', old.row_seq, old.title, old.body_cache);
END;

CREATE TRIGGER prompts_au AFTER UPDATE OF title, body_cache ON prompts BEGIN
	INSERT INTO prompts_fts(prompts_fts, rowid, title, body_cache) VALUES ('delete', old.row_seq, old.title, old.body_cache);
	INSERT INTO prompts_fts(rowid, title, body_cache) VALUES (new.row_seq, new.title, new.body_cache);
END;
`

// Tables lists every table created by the initial migration, including the
// full-text projection.
var Tables = []string{
	"categories", "tags", "prompts", "prompt_tags", "workflows", "workflow_steps", "prompts_fts",
}

// Indexes lists every named index created by the initial migration.
var Indexes = []string{
	"tags_name_nocase",
	"categories_name_nocase",
	"prompts_category_id",
	"prompts_is_favorite",
	"prompts_is_archived",
	"prompts_updated_at",
	"prompt_tags_tag_id",
	"workflow_steps_workflow_id",
	"workflow_steps_prompt_id",
}
