package database

import (
	"fmt"
	"time"

	"github.com/t1000cgm/companion/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GlucoseReading is one archived CGM reading. The archive preserves
// history beyond the 120-minute window the Share API returns.
type GlucoseReading struct {
	gorm.Model
	Value     int       // mg/dL
	Trend     int       // trend code as sent to the watch
	Timestamp time.Time `gorm:"uniqueIndex"`
}

// NewPostgresDB connects and migrates the archive schema.
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&GlucoseReading{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
