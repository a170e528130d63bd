package database

import (
	"log"
	"strings"

	"elearn/internal/domain"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{TranslateError: true},
	)
}

// Migrate creates/updates the schema, including the unique indexes the
// payment idempotency guard and access grants rely on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
		&domain.Offer{},
		&domain.Booking{},
		&domain.PaymentHistory{},
		&domain.Note{},
		&domain.NotePurchase{},
		&domain.NoteAccess{},
	)
}
