package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earningbee/bee-engine/internal/models"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepositoryFromDB(db), mock
}

var userRowColumns = []string{"id", "face_key", "private_key", "face_scanned", "name", "email", "bio", "profile_image", "created_at"}

func TestPostgresRepository_CreateUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := testUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.FaceKey, u.PrivateKey, true, "", "", "", "", u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateUser(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetUserByFaceKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := testUser()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE face_key = \$1`).
		WithArgs(u.FaceKey).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(u.ID, u.FaceKey, u.PrivateKey, true, "Ada", "ada@example.com", "", "", u.CreatedAt))

	got, err := repo.GetUserByFaceKey(context.Background(), u.FaceKey)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Ada", got.Profile.Name)
	assert.Equal(t, u.CreatedAt, got.Profile.JoinedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetUserNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := testUser()
	u.Profile.Name = "Ada"

	mock.ExpectExec(`UPDATE users`).
		WithArgs(u.ID, "Ada", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("missing", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateUser(context.Background(), u))
	assert.ErrorIs(t, repo.UpdateUser(context.Background(), &models.User{ID: "missing"}), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Sessions(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Session{ID: "s1", Token: "tok", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(s.ID, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "created_at", "expires_at"}).
			AddRow(s.ID, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt))
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSessionByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, *s, *got)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	n, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Activity(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM activity WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "time_spent", "search_count", "pages_visited", "recommendations_viewed", "start_time"}).
			AddRow("u1", int64(90), 2, []byte(`["/input","/recommendations"]`), 4, start))

	a, err := repo.GetActivity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), a.TimeSpent)
	assert.Equal(t, 2, a.SearchCount)
	assert.Equal(t, []string{"/input", "/recommendations"}, a.PagesVisited)
	assert.Equal(t, 4, a.RecommendationsViewed)

	mock.ExpectExec(`INSERT INTO activity (.+) ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs("u1", int64(90), 2, []byte(`["/input","/recommendations"]`), 4, start).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveActivity(ctx, a))

	mock.ExpectQuery(`SELECT (.+) FROM activity`).
		WithArgs("u2").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetActivity(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SavedInput(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	q := models.UserQuery{Investment: 100, MonthlyGoal: 1000, Preference: models.PreferenceOnline}

	mock.ExpectExec(`INSERT INTO saved_inputs`).
		WithArgs("u1", 100, 1000, "online").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT investment, monthly_goal, preference FROM saved_inputs`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"investment", "monthly_goal", "preference"}).AddRow(100, 1000, "online"))

	require.NoError(t, repo.SaveInput(ctx, "u1", q))

	got, err := repo.GetSavedInput(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, q, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Theme(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO user_themes`).
		WithArgs("u1", "dark").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT mode FROM user_themes`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"mode"}).AddRow("dark"))
	mock.ExpectQuery(`SELECT mode FROM user_themes`).
		WithArgs("u2").
		WillReturnError(sql.ErrNoRows)

	require.NoError(t, repo.SaveTheme(ctx, "u1", models.ThemeDark))

	mode, err := repo.GetTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, mode)

	_, err = repo.GetTheme(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectExec(`INSERT INTO sessions`).WillReturnError(boom)

	err := repo.CreateSession(context.Background(), &models.Session{ID: "s1"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPendingMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_user_state.sql", "001_init.sql", "notes.txt", "003_extra.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.sql"), 0o755))

	pending, err := pendingMigrations(dir, map[string]bool{"001_init.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_user_state.sql", "003_extra.sql"}, pending)

	_, err = pendingMigrations(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}

func TestShippedMigrationsAreOrdered(t *testing.T) {
	pending, err := pendingMigrations(filepath.Join("..", "..", "migrations"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_user_state.sql"}, pending)
}
