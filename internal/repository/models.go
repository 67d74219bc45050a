// Package repository provides database abstraction for the mining service.
package repository

import (
	"database/sql/driver"
	"errors"
	"time"
)

// MiningRunRecord represents the mining_runs table: one row per
// Construct-through-Report invocation of the engine.
type MiningRunRecord struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID       string     `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	InputSource   string     `gorm:"column:input_source;type:varchar(512)"`
	MinSupport    int        `gorm:"column:min_support"`
	LevelsRun     int        `gorm:"column:levels_run"`
	PatternsFound int        `gorm:"column:patterns_found"`
	Status        string     `gorm:"column:status;type:varchar(32)"`
	StatusInfo    string     `gorm:"column:status_info;type:text"`
	StartedAt     time.Time  `gorm:"column:started_at"`
	FinishedAt    *time.Time `gorm:"column:finished_at"`
}

// TableName returns the table name for MiningRunRecord.
func (MiningRunRecord) TableName() string {
	return "mining_runs"
}

// PatternRecordRow represents the pattern_records table: one row per
// reported pattern, capped at a run's configured top-N.
type PatternRecordRow struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID  string    `gorm:"column:run_uuid;type:varchar(64);index"`
	Rank     int       `gorm:"column:rank"`
	Pattern  string    `gorm:"column:pattern;type:varchar(1024)"`
	Length   int       `gorm:"column:length"`
	Score    int       `gorm:"column:score"`
	Support  int       `gorm:"column:support"`
	EventIDs JSONField `gorm:"column:event_ids;type:text"`
}

// TableName returns the table name for PatternRecordRow.
func (PatternRecordRow) TableName() string {
	return "pattern_records"
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
