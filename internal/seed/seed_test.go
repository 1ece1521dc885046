package seed

import (
	"context"
	"testing"

	"townsquare/internal/models"
	"townsquare/internal/ranking"
	"townsquare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	s := NewSeeder(db, Options{NumUsers: 8, NumPosts: 60, SkipBcrypt: true, RandSeed: 42})
	summary, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(DefaultBlockedWords), summary.BlockedWords)
	assert.Equal(t, 8, summary.Users)

	stored := 0
	for _, n := range summary.Posts {
		stored += n
	}
	assert.Equal(t, 60, stored+summary.Rejected)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	assert.Len(t, posts, stored)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	roles := map[uint]string{}
	for _, u := range users {
		roles[u.ID] = u.Role
	}

	for _, p := range posts {
		assert.NotContains(t, p.Body, "scamlink", "rejected content must not be stored")
		assert.Equal(t, ranking.RolePriority(roles[p.AuthorID]), p.RolePriority)
		assert.Equal(t, ranking.TagPriority(p.Tags), p.TagPriority)
		if p.IsPinned {
			assert.True(t, ranking.CanPin(roles[p.AuthorID]))
		}
		if p.Status == models.PostStatusPendingReview {
			assert.Contains(t, p.Body, "free money")
		}
	}
}

func TestUsers_EveryRoleCanLogIn(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true, RandSeed: 7})

	users, err := s.Users(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, users, 4)

	want := []string{models.RoleAdmin, models.RoleStaff, models.RoleMember, models.RoleUser}
	for i, u := range users {
		assert.Equal(t, want[i], u.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
	}
	assert.Equal(t, "admin@townsquare.local", users[0].Email)
}

func TestBlockedWords_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{})
	ctx := context.Background()

	first, err := s.BlockedWords(ctx)
	require.NoError(t, err)
	second, err := s.BlockedWords(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(DefaultBlockedWords), first)
	assert.Zero(t, second)
}

func TestClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	s := NewSeeder(db, Options{NumUsers: 4, NumPosts: 5, SkipBcrypt: true, RandSeed: 1})
	_, err := s.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))

	for _, model := range []any{&models.User{}, &models.Post{}, &models.BlockedWord{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestPosts_RequiresAuthors(t *testing.T) {
	s := NewSeeder(testutil.NewSQLiteDB(t), Options{})
	_, err := s.Posts(context.Background(), nil, 3)
	assert.Error(t, err)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "JohnDoe", sanitizeUsername("John.Doe"))
	assert.Equal(t, "user", sanitizeUsername("..."))
	assert.Len(t, sanitizeUsername("abcdefghijklmnopqrstuvwxyz"), 20)
}
