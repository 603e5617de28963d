package storage

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

// SaveResult upserts by session id so a retried terminal persist never
// produces a duplicate row.
func (r *sqliteRepository) SaveResult(rec *GameRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

func (r *sqliteRepository) GetResultBySessionID(sessionID string) (*GameRecord, error) {
	var rec GameRecord
	if err := r.db.Where("session_id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteRepository) ListResults(limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []GameRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sqliteRepository) CountResultsSince(t time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&GameRecord{}).Where("created_at >= ?", t).Count(&n).Error
	return n, err
}
