package repository

import (
	"time"

	"filekeeper/internal/db"
	"filekeeper/internal/model"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Save(outcome model.RestoreOutcome) error {
	status := model.StatusSuccess
	errMsg := ""
	if !outcome.Success {
		status = model.StatusFailed
	}
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}

	restoredAt := outcome.Timestamp
	if restoredAt.IsZero() {
		restoredAt = time.Now()
	}

	history := model.History{
		Status:      status,
		Target:      outcome.Target.Name,
		SrcPath:     outcome.Target.SourcePath,
		DstPath:     outcome.Target.TargetPath,
		Trigger:     string(outcome.Trigger),
		Result:      outcome.Result(),
		BytesCopied: outcome.BytesCopied,
		Checksum:    outcome.Checksum,
		ErrKind:     string(outcome.Kind),
		ErrMsg:      errMsg,
		RestoredAt:  restoredAt,
	}

	return db.DB.Create(&history).Error
}

type Stats struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Order("restored_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetByTarget(name string, limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("target = ?", name).
		Order("restored_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

// GetFailed returns failed restores, newest first. An empty target means
// every target.
func (r *HistoryRepository) GetFailed(target string, limit int) ([]model.History, error) {
	query := db.DB.Where("status = ?", model.StatusFailed)
	if target != "" {
		query = query.Where("target = ?", target)
	}

	var histories []model.History
	result := query.
		Order("restored_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
