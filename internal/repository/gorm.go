package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// SaveRun persists a mining run and its top patterns in one transaction.
func (r *GormRunRepository) SaveRun(ctx context.Context, run *MiningRun, patterns []Pattern) error {
	record := &MiningRunRecord{
		RunUUID:       run.RunUUID,
		InputSource:   run.InputSource,
		MinSupport:    run.MinSupport,
		LevelsRun:     run.LevelsRun,
		PatternsFound: run.PatternsFound,
		Status:        run.Status,
		StatusInfo:    run.StatusInfo,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to save mining run: %w", err)
		}

		if len(patterns) == 0 {
			return nil
		}

		rows := make([]PatternRecordRow, len(patterns))
		for i, p := range patterns {
			eventIDs, err := json.Marshal(p.EventIDs)
			if err != nil {
				return fmt.Errorf("failed to encode pattern event ids: %w", err)
			}
			rows[i] = PatternRecordRow{
				RunUUID:  run.RunUUID,
				Rank:     p.Rank,
				Pattern:  p.Pattern,
				Length:   p.Length,
				Score:    p.Score,
				Support:  p.Support,
				EventIDs: JSONField(eventIDs),
			}
		}

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save pattern records: %w", err)
		}

		return nil
	})
}

// GetRun retrieves a mining run by its UUID.
func (r *GormRunRepository) GetRun(ctx context.Context, runUUID string) (*MiningRun, error) {
	var record MiningRunRecord

	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("mining run not found: %s", runUUID)
		}
		return nil, fmt.Errorf("failed to get mining run: %w", err)
	}

	return &MiningRun{
		RunUUID:       record.RunUUID,
		InputSource:   record.InputSource,
		MinSupport:    record.MinSupport,
		LevelsRun:     record.LevelsRun,
		PatternsFound: record.PatternsFound,
		Status:        record.Status,
		StatusInfo:    record.StatusInfo,
		StartedAt:     record.StartedAt,
		FinishedAt:    record.FinishedAt,
	}, nil
}

// ListPatterns retrieves the patterns reported for a run, ordered by
// rank ascending.
func (r *GormRunRepository) ListPatterns(ctx context.Context, runUUID string) ([]Pattern, error) {
	var rows []PatternRecordRow

	err := r.db.WithContext(ctx).
		Where("run_uuid = ?", runUUID).
		Order("rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern records: %w", err)
	}

	patterns := make([]Pattern, len(rows))
	for i, row := range rows {
		var eventIDs [][]int
		if len(row.EventIDs) > 0 {
			if err := json.Unmarshal(row.EventIDs, &eventIDs); err != nil {
				return nil, fmt.Errorf("failed to decode pattern event ids: %w", err)
			}
		}
		patterns[i] = Pattern{
			Rank:     row.Rank,
			Pattern:  row.Pattern,
			Length:   row.Length,
			Score:    row.Score,
			Support:  row.Support,
			EventIDs: eventIDs,
		}
	}

	return patterns, nil
}
