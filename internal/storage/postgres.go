package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nording/breathe/internal/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	repo := &PostgresRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
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
		preset BOOLEAN NOT NULL DEFAULT FALSE,
		user_id TEXT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		pattern_id TEXT NOT NULL REFERENCES patterns(id),
		target_sec INTEGER NOT NULL,
		actual_sec INTEGER,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMPTZ NOT NULL,
		timezone TEXT,
		local_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_local_date ON sessions(user_id, local_date);

	CREATE TABLE IF NOT EXISTS user_stats (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_practice TEXT,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		default_pattern_id TEXT REFERENCES patterns(id) ON DELETE SET NULL,
		audio_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		reminder_time TEXT,
		onboarded BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *PostgresRepository) CreateUser(user *domain.User, prefs domain.Preferences) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pgErrCode(err, "23505") {
			return domain.ErrDuplicate
		}
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO user_stats (user_id, updated_at) VALUES ($1, $2)`,
		user.ID, user.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO preferences
			(user_id, default_pattern_id, audio_enabled, reminder_enabled, reminder_time, onboarded, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, prefs.DefaultPatternID, prefs.AudioEnabled,
		prefs.ReminderEnabled, prefs.ReminderTime, prefs.Onboarded, user.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) UserByID(id string) (*domain.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *PostgresRepository) UserByEmail(email string) (*domain.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *PostgresRepository) CreatePattern(p *domain.BreathingPattern) error {
	_, err := r.db.Exec(
		`INSERT INTO patterns
			(id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Slug, p.Description,
		p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec,
		p.Preset, nullIfEmpty(p.UserID), p.CreatedAt,
	)
	if pgErrCode(err, "23505") {
		return domain.ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) PatternByID(id string) (*domain.BreathingPattern, error) {
	row := r.db.QueryRow(
		`SELECT id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at
		 FROM patterns WHERE id = $1`, id)

	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) PatternsForUser(userID string) ([]domain.BreathingPattern, error) {
	rows, err := r.db.Query(
		`SELECT id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at
		 FROM patterns
		 WHERE preset = TRUE OR user_id = $1
		 ORDER BY preset DESC, created_at, name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPatterns(rows)
}

func (r *PostgresRepository) UpdatePattern(p *domain.BreathingPattern) error {
	res, err := r.db.Exec(
		`UPDATE patterns
		 SET name = $1, slug = $2, description = $3, inhale_sec = $4, inhale_hold_sec = $5, exhale_sec = $6, exhale_hold_sec = $7
		 WHERE id = $8`,
		p.Name, p.Slug, p.Description,
		p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec, p.ID,
	)
	if err != nil {
		if pgErrCode(err, "23505") {
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

func (r *PostgresRepository) DeletePattern(id string) error {
	res, err := r.db.Exec(`DELETE FROM patterns WHERE id = $1`, id)
	if err != nil {
		if pgErrCode(err, "23503") {
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

func (r *PostgresRepository) EnsurePresets(presets []domain.BreathingPattern) error {
	query := `
		INSERT INTO patterns
			(id, name, slug, description, inhale_sec, inhale_hold_sec, exhale_sec, exhale_hold_sec, preset, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NULL, $9)
		ON CONFLICT (slug) DO NOTHING
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

func (r *PostgresRepository) CreateSession(s *domain.Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.PatternID, s.TargetSec,
		s.ActualSec, s.Completed, s.StartedAt,
		nullIfEmpty(s.Timezone), nullIfEmpty(s.LocalDate),
	)
	return err
}

func (r *PostgresRepository) SessionByID(id string) (*domain.Session, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date
		 FROM sessions WHERE id = $1`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) SessionsByUser(userID string, limit int) ([]domain.Session, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, pattern_id, target_sec, actual_sec, completed, started_at, timezone, local_date
		 FROM sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *PostgresRepository) FinalizeSession(s *domain.Session) (*domain.UserStats, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback()

	var existing sql.NullInt64
	err = tx.QueryRow(
		`SELECT actual_sec FROM sessions WHERE id = $1 FOR UPDATE`, s.ID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing.Valid {
		return nil, domain.ErrAlreadyCompleted
	}

	_, err = tx.Exec(
		`UPDATE sessions
		 SET actual_sec = $1, completed = $2, timezone = $3, local_date = $4
		 WHERE id = $5`,
		s.ActualSec, s.Completed, nullIfEmpty(s.Timezone), nullIfEmpty(s.LocalDate), s.ID,
	)
	if err != nil {
		return nil, err
	}

	if !s.Completed {
		return nil, tx.Commit()
	}

	stats := domain.UserStats{UserID: s.UserID}
	var last sql.NullString
	err = tx.QueryRow(
		`SELECT total_sessions, total_minutes, current_streak, longest_streak, last_practice
		 FROM user_stats WHERE user_id = $1 FOR UPDATE`, s.UserID).
		Scan(&stats.TotalSessions, &stats.TotalMinutes, &stats.CurrentStreak, &stats.LongestStreak, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	stats.LastPractice = last.String

	stats = domain.ApplyCompletion(stats, s)
	stats.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(
		`INSERT INTO user_stats (user_id, total_sessions, total_minutes, current_streak, longest_streak, last_practice, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			total_sessions = EXCLUDED.total_sessions,
			total_minutes = EXCLUDED.total_minutes,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_practice = EXCLUDED.last_practice,
			updated_at = EXCLUDED.updated_at`,
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

func (r *PostgresRepository) StatsForUser(userID string) (*domain.UserStats, error) {
	row := r.db.QueryRow(
		`SELECT user_id, total_sessions, total_minutes, current_streak, longest_streak, last_practice, updated_at
		 FROM user_stats WHERE user_id = $1`, userID)

	stats, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserStats{UserID: userID}, nil
	}
	return stats, err
}

func (r *PostgresRepository) CompletedDatesInRange(userID, from, to string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT local_date FROM sessions
		 WHERE user_id = $1 AND completed = TRUE AND local_date BETWEEN $2 AND $3`,
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

func (r *PostgresRepository) PreferencesForUser(userID string) (*domain.Preferences, error) {
	row := r.db.QueryRow(
		`SELECT user_id, default_pattern_id, audio_enabled, reminder_enabled, reminder_time, onboarded, updated_at
		 FROM preferences WHERE user_id = $1`, userID)

	prefs, err := scanPreferences(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return prefs, err
}

func (r *PostgresRepository) UpdatePreferences(p *domain.Preferences) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(
		`UPDATE preferences
		 SET default_pattern_id = $1, audio_enabled = $2, reminder_enabled = $3, reminder_time = $4, onboarded = $5, updated_at = $6
		 WHERE user_id = $7`,
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

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func pgErrCode(err error, code pq.ErrorCode) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == code
}
