package household

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/database/dbtest"
)

func addUser(t *testing.T, db *sql.DB, email, name string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, 'x', ?)", email, name, time.Now())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestHouseholds(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewRepository(db, time.Hour)

	ada := addUser(t, db, "ada@example.com", "Ada")
	bob := addUser(t, db, "bob@example.com", "Bob")

	home, err := repo.Ensure(ctx, ada, "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Household", home.Name)
	assert.Equal(t, []Member{{UserID: ada, Email: "ada@example.com"}}, home.Members)

	same, err := repo.Ensure(ctx, ada, "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, home.ID, same.ID)

	bobs, err := repo.Ensure(ctx, bob, "bob@example.com", "Bob")
	require.NoError(t, err)

	code, err := repo.CreateJoinCode(ctx, home.ID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), code.Code)

	t.Run("Join", func(t *testing.T) {
		got, err := repo.Join(ctx, bob, "bob@example.com", " "+code.Code+" ")
		require.NoError(t, err)
		assert.Equal(t, home.ID, got.ID)
		assert.Len(t, got.Members, 2)
		assert.NotEqual(t, bobs.ID, got.ID)
	})

	t.Run("InvalidCode", func(t *testing.T) {
		_, err := repo.Join(ctx, bob, "bob@example.com", "NOPE1234")
		assert.ErrorIs(t, err, ErrInvalidJoinCode)
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		expired, err := repo.CreateJoinCode(ctx, home.ID)
		require.NoError(t, err)
		repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { repo.now = time.Now }()

		_, err = repo.Join(ctx, bob, "bob@example.com", expired.Code)
		assert.ErrorIs(t, err, ErrInvalidJoinCode)
		require.NoError(t, repo.CleanupExpiredCodes(ctx))
	})

	t.Run("RemoveSelf", func(t *testing.T) {
		assert.ErrorIs(t, repo.Remove(ctx, ada, ada), ErrRemoveSelf)
	})

	t.Run("RemoveMember", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, ada, bob))

		got, err := repo.ForUser(ctx, bob)
		require.NoError(t, err)
		assert.NotEqual(t, home.ID, got.ID)
		assert.Equal(t, "Bob Household", got.Name)

		assert.ErrorIs(t, repo.Remove(ctx, ada, bob), ErrNotMember)
	})

	t.Run("Leave", func(t *testing.T) {
		got, err := repo.Leave(ctx, ada, "ada@example.com", "Ada")
		require.NoError(t, err)
		assert.NotEqual(t, home.ID, got.ID)

		members, err := repo.Members(ctx, home.ID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}
