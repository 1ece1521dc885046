package database

import (
	"testing"

	"townsquare/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesFeedTables(t *testing.T) {
	var hasPost, hasBlockedWord, hasSavedPost, hasBlockedUser bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Post:
			hasPost = true
		case *models.BlockedWord:
			hasBlockedWord = true
		case *models.SavedPost:
			hasSavedPost = true
		case *models.BlockedUser:
			hasBlockedUser = true
		}
	}
	require.True(t, hasPost, "PersistentModels should include Post")
	require.True(t, hasBlockedWord, "PersistentModels should include BlockedWord")
	require.True(t, hasSavedPost, "PersistentModels should include SavedPost")
	require.True(t, hasBlockedUser, "PersistentModels should include BlockedUser")
}
