// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Recommendations table
		{
			ID: "001_recommendations",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates the table with all indexes from struct tags
				return tx.AutoMigrate(&Recommendation{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("recommendations")
			},
		},

		// Migration 002: Predictions table
		{
			ID: "002_predictions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Prediction{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("predictions")
			},
		},

		// Migration 003: Feedback events table
		{
			ID: "003_feedback_events",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&FeedbackEvent{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("feedback_events")
			},
		},
	})

	return m.Migrate()
}
