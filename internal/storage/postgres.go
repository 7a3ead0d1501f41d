package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/earningbee/bee-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// NewPostgresRepository opens a connection pool and verifies it
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5)
	}

	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing handle
func NewPostgresRepositoryFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// --- Users ---

const userColumns = `id, face_key, private_key, face_scanned, name, email, bio, profile_image, created_at`

// CreateUser inserts a new user
func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, face_key, private_key, face_scanned, name, email, bio, profile_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.FaceKey,
		u.PrivateKey,
		u.FaceScanned,
		u.Profile.Name,
		u.Profile.Email,
		u.Profile.Bio,
		u.Profile.ProfileImage,
		u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByFaceKey retrieves the user registered for a face scan
func (r *PostgresRepository) GetUserByFaceKey(ctx context.Context, faceKey string) (*models.User, error) {
	return r.getUser(ctx, "face_key", faceKey)
}

func (r *PostgresRepository) getUser(ctx context.Context, field, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, field)

	var u models.User
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID,
		&u.FaceKey,
		&u.PrivateKey,
		&u.FaceScanned,
		&u.Profile.Name,
		&u.Profile.Email,
		&u.Profile.Bio,
		&u.Profile.ProfileImage,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Profile.JoinedDate = u.CreatedAt
	return &u, nil
}

// UpdateUser saves the editable profile fields
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, bio = $4, profile_image = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Profile.Name,
		u.Profile.Email,
		u.Profile.Bio,
		u.Profile.ProfileImage,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectRow(result)
}

// --- Sessions ---

// CreateSession creates a new session record
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSessionByToken retrieves a session by its bearer token
func (r *PostgresRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, token).Scan(&s.ID, &s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

// DeleteSession deletes a session by ID
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectRow(result)
}

// DeleteExpiredSessions removes sessions that expired before now
func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return result.RowsAffected()
}

// --- Activity ---

// GetActivity retrieves the usage counters for a user
func (r *PostgresRepository) GetActivity(ctx context.Context, userID string) (*models.Activity, error) {
	query := `
		SELECT user_id, time_spent, search_count, pages_visited, recommendations_viewed, start_time
		FROM activity
		WHERE user_id = $1
	`

	var a models.Activity
	var pagesJSON []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&a.UserID,
		&a.TimeSpent,
		&a.SearchCount,
		&pagesJSON,
		&a.RecommendationsViewed,
		&a.StartTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	a.PagesVisited = []string{}
	if pagesJSON != nil {
		if err := json.Unmarshal(pagesJSON, &a.PagesVisited); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pages visited: %w", err)
		}
	}

	return &a, nil
}

// SaveActivity upserts the usage counters for a user
func (r *PostgresRepository) SaveActivity(ctx context.Context, a *models.Activity) error {
	pages := a.PagesVisited
	if pages == nil {
		pages = []string{}
	}
	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages visited: %w", err)
	}

	query := `
		INSERT INTO activity (user_id, time_spent, search_count, pages_visited, recommendations_viewed, start_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET time_spent = EXCLUDED.time_spent,
		    search_count = EXCLUDED.search_count,
		    pages_visited = EXCLUDED.pages_visited,
		    recommendations_viewed = EXCLUDED.recommendations_viewed,
		    start_time = EXCLUDED.start_time
	`

	_, err = r.db.ExecContext(ctx, query,
		a.UserID,
		a.TimeSpent,
		a.SearchCount,
		pagesJSON,
		a.RecommendationsViewed,
		a.StartTime,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	return nil
}

// --- Saved input and theme ---

// GetSavedInput returns the last query a user submitted
func (r *PostgresRepository) GetSavedInput(ctx context.Context, userID string) (*models.UserQuery, error) {
	query := `SELECT investment, monthly_goal, preference FROM saved_inputs WHERE user_id = $1`

	var q models.UserQuery
	var pref string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&q.Investment, &q.MonthlyGoal, &pref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get saved input: %w", err)
	}

	q.Preference = models.Preference(pref)
	return &q, nil
}

// SaveInput replaces the saved query for a user
func (r *PostgresRepository) SaveInput(ctx context.Context, userID string, q models.UserQuery) error {
	query := `
		INSERT INTO saved_inputs (user_id, investment, monthly_goal, preference, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET investment = EXCLUDED.investment,
		    monthly_goal = EXCLUDED.monthly_goal,
		    preference = EXCLUDED.preference,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, q.Investment, q.MonthlyGoal, string(q.Preference)); err != nil {
		return fmt.Errorf("failed to save input: %w", err)
	}

	return nil
}

// GetTheme returns the stored theme for a user
func (r *PostgresRepository) GetTheme(ctx context.Context, userID string) (models.ThemeMode, error) {
	var mode string
	err := r.db.QueryRowContext(ctx, `SELECT mode FROM user_themes WHERE user_id = $1`, userID).Scan(&mode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get theme: %w", err)
	}

	return models.ThemeMode(mode), nil
}

// SaveTheme stores the theme for a user
func (r *PostgresRepository) SaveTheme(ctx context.Context, userID string, mode models.ThemeMode) error {
	query := `
		INSERT INTO user_themes (user_id, mode)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode
	`

	if _, err := r.db.ExecContext(ctx, query, userID, string(mode)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}

	return nil
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
