package database

import "townsquare/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Report{},
		&models.BlockedWord{},
		&models.SavedPost{},
		&models.BlockedUser{},
	}
}
