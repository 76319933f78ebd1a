package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/nording/breathe/internal/domain"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One connection serializes writers; WAL keeps readers cheap.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// NewMemory creates an in-memory repository for testing.
func NewMemory() (*SQLiteRepository, error) {
	return NewSQLiteRepository(":memory:")
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		inhale_sec INTEGER NOT NULL,
		inhale_hold_sec INTEGER NOT NULL DEFAULT 0,
		exhale_sec INTEGER NOT NULL,
		exhale_hold_sec INTEGER NOT NULL DEFAULT 0,
		preset INTEGER NOT NULL DEFAULT 0,
		user_id TEXT REFERENCES users(id),
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		pattern_id TEXT NOT NULL REFERENCES patterns(id),
		target_sec INTEGER NOT NULL,
		actual_sec INTEGER,
		completed INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		timezone TEXT,
		local_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_local_date ON sessions(user_id, local_date);

	CREATE TABLE IF NOT EXISTS user_stats (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_minutes REAL NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_practice TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		default_pattern_id TEXT REFERENCES patterns(id) ON DELETE SET NULL,
		audio_enabled INTEGER NOT NULL DEFAULT 1,
		reminder_enabled INTEGER NOT NULL DEFAULT 0,
		reminder_time TEXT,
		onboarded INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) CreateUser(user *domain.User, prefs domain.Preferences) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if sqliteErrCode(err, sqlite3.ErrConstraintUnique) {
			return domain.ErrDuplicate
		}
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO user_stats (user_id, updated_at) VALUES (?, ?)`,
		user.ID, user.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO preferences
			(user_id, default_pattern_id, audio_enabled, reminder_enabled, reminder_time, onboarded, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, prefs.DefaultPatternID, prefs.AudioEnabled,
		prefs.ReminderEnabled, prefs.ReminderTime, prefs.Onboarded, user.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLiteRepository) UserByID(id string) (*domain.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *SQLiteRepository) UserByEmail(email string) (*domain.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *SQLiteRepository) CreatePattern(p *domain.BreathingPattern) error {
	_, err := r.db.Exec(
		`INSERT INTO patterns
			(id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description,
		p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec,
		p.Preset, nullIfEmpty(p.UserID), p.CreatedAt,
	)
	if sqliteErrCode(err, sqlite3.ErrConstraintUnique) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *SQLiteRepository) PatternByID(id string) (*domain.BreathingPattern, error) {
	row := r.db.QueryRow(
		`SELECT id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at
		 FROM patterns WHERE id = ?`, id)

	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *SQLiteRepository) PatternsForUser(userID string) ([]domain.BreathingPattern, error) {
	rows, err := r.db.Query(
		`SELECT id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at
		 FROM patterns
		 WHERE preset = 1 OR user_id = ?
		 ORDER BY preset DESC, created_at, name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPatterns(rows)
}

func (r *SQLiteRepository) UpdatePattern(p *domain.BreathingPattern) error {
	res, err := r.db.Exec(
		`UPDATE patterns
		 SET name = ?, slug = ?, description = ?, inhale_sec = ?, inhale_hold_sec = ?, exhale_sec = ?, exhale_hold_sec = ?
		 WHERE id = ?`,
		p.Name, p.Slug, p.Description,
		p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec, p.ID,
	)
	if err != nil {
		if sqliteErrCode(err, sqlite3.ErrConstraintUnique) {
			return domain.ErrDuplicate
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeletePattern(id string) error {
	res, err := r.db.Exec(`DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		if sqliteErrCode(err, sqlite3.ErrConstraintForeignKey) {
			return fmt.Errorf("%w: pattern has recorded sessions", domain.ErrInvalidInput)
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) EnsurePresets(presets []domain.BreathingPattern) error {
	query := `
		INSERT OR IGNORE INTO patterns
			(id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, NULL, ?)
	`

	for _, p := range presets {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}

		_, err := r.db.Exec(query,
			id, p.Name, p.Slug, p.Description,
			p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec,
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seed preset %s: %w", p.Slug, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) CreateSession(s *domain.Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.PatternID, s.TargetSec,
		s.ActualSec, s.Completed, s.StartedAt,
		nullIfEmpty(s.Timezone), nullIfEmpty(s.LocalDate),
	)
	return err
}

func (r *SQLiteRepository) SessionByID(id string) (*domain.Session, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date
		 FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *SQLiteRepository) SessionsByUser(userID string, limit int) ([]domain.Session, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date
		 FROM sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *SQLiteRepository) FinalizeSession(s *domain.Session) (*domain.UserStats, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE sessions
		 SET actual_sec = ?, completed = ?, timezone = ?, local_date = ?
		 WHERE id = ? AND actual_sec IS NULL`,
		s.ActualSec, s.Completed, nullIfEmpty(s.Timezone), nullIfEmpty(s.LocalDate), s.ID,
	)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrAlreadyCompleted
	}

	if !s.Completed {
		return nil, tx.Commit()
	}

	stats := domain.UserStats{UserID: s.UserID}
	var last sql.NullString
	err = tx.QueryRow(
		`SELECT total_sessions, total_minutes, current_streak, longest_streak, last_practice
		 FROM user_stats WHERE user_id = ?`, s.UserID).
		Scan(&stats.TotalSessions, &stats.TotalMinutes, &stats.CurrentStreak, &stats.LongestStreak, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	stats.LastPractice = last.String

	stats = domain.ApplyCompletion(stats, s)
	stats.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(
		`INSERT INTO user_stats (user_id, total_sessions, total_minutes, current_streak, longest_streak, last_practice, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			total_sessions = excluded.total_sessions,
			total_minutes = excluded.total_minutes,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_practice = excluded.last_practice,
			updated_at = excluded.updated_at`,
		stats.UserID, stats.TotalSessions, stats.TotalMinutes,
		stats.CurrentStreak, stats.LongestStreak,
		nullIfEmpty(stats.LastPractice), stats.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *SQLiteRepository) StatsForUser(userID string) (*domain.UserStats, error) {
	row := r.db.QueryRow(
		`SELECT user_id, total_sessions, total_minutes, current_streak, longest_streak, last_practice, updated_at
		 FROM user_stats WHERE user_id = ?`, userID)

	stats, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserStats{UserID: userID}, nil
	}
	return stats, err
}

func (r *SQLiteRepository) CompletedDatesInRange(userID, from, to string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT local_date FROM sessions
		 WHERE user_id = ? AND completed = 1 AND local_date BETWEEN ? AND ?`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *SQLiteRepository) PreferencesForUser(userID string) (*domain.Preferences, error) {
	row := r.db.QueryRow(
		`SELECT user_id, default_pattern_id, audio_enabled, reminder_enabled, reminder_time, onboarded, updated_at
		 FROM preferences WHERE user_id = ?`, userID)

	prefs, err := scanPreferences(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return prefs, err
}

func (r *SQLiteRepository) UpdatePreferences(p *domain.Preferences) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(
		`UPDATE preferences
		 SET default_pattern_id = ?, audio_enabled = ?, reminder_enabled = ?, reminder_time = ?, onboarded = ?, updated_at = ?
		 WHERE user_id = ?`,
		p.DefaultPatternID, p.AudioEnabled, p.ReminderEnabled,
		p.ReminderTime, p.Onboarded, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func sqliteErrCode(err error, code sqlite3.ErrNoExtended) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == code
}
