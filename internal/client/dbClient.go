package client

import (
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"portal-billing/internal/model"
)

// InitDB opens the relational store. A DSN with a tcp address selects MySQL,
// anything else is treated as a SQLite path (local dev and tests).
func InitDB(databaseURL string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(databaseURL, "@tcp(") {
		dialector = mysql.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Plan{},
		&model.Profile{},
		&model.Subscription{},
		&model.Payment{},
		&model.WebhookEvent{},
		&model.CheckoutState{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
