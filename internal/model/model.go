package model

import (
	"gorm.io/gorm"
)

// AutoMigrate migrates the table backing the named model.
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Job":
		return db.AutoMigrate(Job{})
	case "Run":
		return db.AutoMigrate(Run{})
	case "Heartbeat":
		return db.AutoMigrate(Heartbeat{})
	case "Alert":
		return db.AutoMigrate(Alert{})
	}
	return nil
}

// AutoMigrateAll migrates every table.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Job{}, Run{}, Heartbeat{}, Alert{})
}
