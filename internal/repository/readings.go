package repository

import (
	"context"
	"fmt"

	"github.com/t1000cgm/companion/internal/database"
	"github.com/t1000cgm/companion/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadingRepository archives fetched readings to Postgres.
type ReadingRepository struct {
	db *gorm.DB
}

// NewReadingRepository builds the repository.
func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// SaveReadings upserts a reading set. Consecutive fetches overlap heavily
// (each returns up to two hours of history), so conflicts on the reading
// timestamp are skipped.
func (r *ReadingRepository) SaveReadings(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	rows := make([]database.GlucoseReading, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, database.GlucoseReading{
			Value:     reading.Value,
			Trend:     int(reading.Trend),
			Timestamp: reading.Timestamp,
		})
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "timestamp"}},
			DoNothing: true,
		}).
		Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("failed to archive readings: %w", result.Error)
	}
	return nil
}

// LatestReadings returns up to limit archived readings, most recent first.
func (r *ReadingRepository) LatestReadings(ctx context.Context, limit int) ([]domain.Reading, error) {
	var rows []database.GlucoseReading
	if err := r.db.WithContext(ctx).
		Order("timestamp desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load archived readings: %w", err)
	}

	readings := make([]domain.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, domain.Reading{
			Value:     row.Value,
			Trend:     domain.TrendCode(row.Trend).Normalize(),
			Timestamp: row.Timestamp,
		})
	}
	return readings, nil
}
