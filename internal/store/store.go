// Package store keeps the listening history and verse bookmarks in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	DBFileName = "library.db"
	// MaxHistory is the number of plays kept; older rows are pruned on insert.
	MaxHistory = 200
)

var ErrNotFound = errors.New("not found")

// Play is one entry of the listening history.
type Play struct {
	ID        int64
	StationID string
	Track     quran.Track
	PlayedAt  time.Time
}

// Bookmark marks a surah or verse of a reciter.
type Bookmark struct {
	ID        string
	Track     quran.Track
	Note      string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens the store in the application cache directory.
func Open() (*Store, error) {
	dir, err := cache.GetCacheDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(filepath.Join(dir, DBFileName))
}

// OpenAt opens or creates the database at path.
func OpenAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordPlay appends a track to the history.
func (s *Store) RecordPlay(stationID string, t quran.Track) error {
	return withTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO plays (station_id, surah_id, ayah_number, reciter_id, title, played_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			stationID, t.SurahID, t.AyahNumber, t.ReciterID, t.DisplayTitle(), time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("failed to record play: %w", err)
		}

		_, err = tx.Exec(`
			DELETE FROM plays WHERE id NOT IN (
				SELECT id FROM plays ORDER BY played_at DESC, id DESC LIMIT ?
			)`, MaxHistory)
		return err
	})
}

// Recent returns up to limit plays, newest first.
func (s *Store) Recent(limit int) ([]Play, error) {
	if limit <= 0 {
		limit = MaxHistory
	}

	rows, err := s.db.Query(`
		SELECT id, station_id, surah_id, ayah_number, reciter_id, title, played_at
		FROM plays ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var playedAt int64
		if err := rows.Scan(&p.ID, &p.StationID, &p.Track.SurahID, &p.Track.AyahNumber,
			&p.Track.ReciterID, &p.Track.Title, &playedAt); err != nil {
			return nil, err
		}
		p.PlayedAt = time.Unix(0, playedAt)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// AddBookmark bookmarks a track. Bookmarking the same surah, verse and
// reciter again updates the note and keeps the original ID.
func (s *Store) AddBookmark(t quran.Track, note string) (Bookmark, error) {
	var b Bookmark
	err := withTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO bookmarks (id, surah_id, ayah_number, reciter_id, title, note, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(surah_id, ayah_number, reciter_id) DO UPDATE SET note = excluded.note`,
			uuid.NewString(), t.SurahID, t.AyahNumber, t.ReciterID, t.DisplayTitle(), note, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("failed to add bookmark: %w", err)
		}

		b, err = scanBookmark(tx.QueryRow(`
			SELECT id, surah_id, ayah_number, reciter_id, title, note, created_at
			FROM bookmarks WHERE surah_id = ? AND ayah_number = ? AND reciter_id = ?`,
			t.SurahID, t.AyahNumber, t.ReciterID))
		return err
	})
	return b, err
}

// FindBookmark returns the bookmark of a track or ErrNotFound.
func (s *Store) FindBookmark(t quran.Track) (Bookmark, error) {
	return scanBookmark(s.db.QueryRow(`
		SELECT id, surah_id, ayah_number, reciter_id, title, note, created_at
		FROM bookmarks WHERE surah_id = ? AND ayah_number = ? AND reciter_id = ?`,
		t.SurahID, t.AyahNumber, t.ReciterID))
}

// Bookmarks returns every bookmark in Quran order.
func (s *Store) Bookmarks() ([]Bookmark, error) {
	rows, err := s.db.Query(`
		SELECT id, surah_id, ayah_number, reciter_id, title, note, created_at
		FROM bookmarks ORDER BY surah_id, ayah_number, reciter_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (s *Store) RemoveBookmark(id string) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (Bookmark, error) {
	var b Bookmark
	var createdAt int64
	err := row.Scan(&b.ID, &b.Track.SurahID, &b.Track.AyahNumber, &b.Track.ReciterID,
		&b.Track.Title, &b.Note, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, ErrNotFound
	}
	if err != nil {
		return Bookmark{}, err
	}
	b.CreatedAt = time.Unix(0, createdAt)
	return b, nil
}
