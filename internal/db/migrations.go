package db

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY,
				handle TEXT UNIQUE COLLATE NOCASE,
				banned BOOLEAN DEFAULT 0,
				auto_banned BOOLEAN DEFAULT 0,
				shadow_banned BOOLEAN DEFAULT 0,
				whitelisted BOOLEAN DEFAULT 0,
				media_count INTEGER DEFAULT 0,
				last_media_at DATETIME,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		name: "create settings table",
		sql: `
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
			INSERT OR IGNORE INTO settings (key, value) VALUES ('join_open', 'true');
		`,
	},
	{
		name: "create banned words table",
		sql: `
			CREATE TABLE IF NOT EXISTS banned_words (
				word TEXT PRIMARY KEY
			)
		`,
	},
	{
		name: "create deliveries table",
		sql: `
			CREATE TABLE IF NOT EXISTS deliveries (
				message_id INTEGER PRIMARY KEY,
				origin_id INTEGER NOT NULL,
				recipient_id INTEGER NOT NULL,
				sent_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_deliveries_origin ON deliveries(origin_id);
		`,
	},
}
