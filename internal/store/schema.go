package store

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			station_id TEXT NOT NULL,
			surah_id INTEGER NOT NULL,
			ayah_number INTEGER NOT NULL DEFAULT 0,
			reciter_id TEXT NOT NULL,
			title TEXT NOT NULL,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_plays_played_at ON plays(played_at);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY,
			surah_id INTEGER NOT NULL,
			ayah_number INTEGER NOT NULL DEFAULT 0,
			reciter_id TEXT NOT NULL,
			title TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			UNIQUE(surah_id, ayah_number, reciter_id)
		);
	`)
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return err
	}
	if version < currentSchemaVersion {
		_, err = db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	}
	return err
}
