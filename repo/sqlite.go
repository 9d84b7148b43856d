package repo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"SurveyBot/model"
)

// SQLiteStore persists submissions and the moderator set in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency. modernc.org/sqlite takes pragmas
	// only in _pragma form; the DSN applies them to every pooled
	// connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS submissions (
		user_id INTEGER PRIMARY KEY,
		event TEXT,
		fio TEXT NOT NULL,
		phone TEXT NOT NULL,
		school_class TEXT NOT NULL,
		prof_prob TEXT,
		rating INTEGER NOT NULL,
		review TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS moderators (
		user_id INTEGER PRIMARY KEY
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Upsert writes one submission row per user, overwriting any existing one.
func (s *SQLiteStore) Upsert(ctx context.Context, sub model.Submission) error {
	query := `
		INSERT INTO submissions (user_id, event, fio, phone, school_class, prof_prob, rating, review, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			event = excluded.event,
			fio = excluded.fio,
			phone = excluded.phone,
			school_class = excluded.school_class,
			prof_prob = excluded.prof_prob,
			rating = excluded.rating,
			review = excluded.review,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		sub.UserID, nullable(sub.Event), sub.Fio, sub.Phone, sub.SchoolClass,
		nullable(sub.ProfProb), sub.Rating, sub.Review, sub.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// Get retrieves a submission by user ID, or nil when none exists.
func (s *SQLiteStore) Get(ctx context.Context, userID int64) (*model.Submission, error) {
	query := `
		SELECT user_id, event, fio, phone, school_class, prof_prob, rating, review, updated_at
		FROM submissions WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)
	sub, err := scanSubmission(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission row: %w", err)
	}
	return sub, nil
}

// List returns all submissions ordered by user ID.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Submission, error) {
	query := `
		SELECT user_id, event, fio, phone, school_class, prof_prob, rating, review, updated_at
		FROM submissions ORDER BY user_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

// Clear deletes every submission.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM submissions`); err != nil {
		return fmt.Errorf("clear submissions: %w", err)
	}
	return nil
}

// LoadModerators returns the persisted moderator IDs.
func (s *SQLiteStore) LoadModerators(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM moderators ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query moderators: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan moderator row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderators: %w", err)
	}
	return ids, nil
}

// SaveModerators replaces the persisted moderator set.
func (s *SQLiteStore) SaveModerators(ctx context.Context, ids []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM moderators`); err != nil {
		return fmt.Errorf("clear moderators: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT INTO moderators (user_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("insert moderator: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func scanSubmission(scan func(dest ...any) error) (*model.Submission, error) {
	var sub model.Submission
	var event, profProb sql.NullString
	var updatedAt int64

	err := scan(
		&sub.UserID, &event, &sub.Fio, &sub.Phone, &sub.SchoolClass,
		&profProb, &sub.Rating, &sub.Review, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Event = event.String
	sub.ProfProb = profProb.String
	sub.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &sub, nil
}
