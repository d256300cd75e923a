package database

import "foodshare/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.FoodListing{},
		&models.Message{},
		&models.Transaction{},
		&models.Review{},
	}
}
