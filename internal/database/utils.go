package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func UpdateAnalysisStatus(ctx context.Context, txn *gorm.DB, analysisId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == AnalysisCompleted || status == AnalysisFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&Analysis{Id: analysisId}).Updates(updates).Error; err != nil {
		slog.Error("error updating analysis status", "analysis_id", analysisId, "status", status, "error", err)
		return err
	}
	return nil
}

func SaveAnalysisError(ctx context.Context, txn *gorm.DB, analysisId uuid.UUID, errorMessage string) {
	analysisError := AnalysisError{
		AnalysisId: analysisId,
		ErrorId:    uuid.New(),
		Error:      errorMessage,
		Timestamp:  time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Create(&analysisError).Error; err != nil {
		slog.Error("error saving analysis error", "analysis_id", analysisId, "error", err)
	}
}

// TouchSession upserts the opaque session row used to group attachments.
func TouchSession(ctx context.Context, db *gorm.DB, sessionId string) error {
	now := time.Now().UTC()

	var session Session
	err := db.WithContext(ctx).
		Where(Session{Id: sessionId}).
		Attrs(Session{CreatedAt: now}).
		FirstOrCreate(&session).Error
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(&Session{Id: sessionId}).Update("last_seen_at", now).Error
}

func GetStats(ctx context.Context, db *gorm.DB) (total int64, statusCounts map[string]int64, recent int64, err error) {
	if err = db.WithContext(ctx).Model(&Analysis{}).Count(&total).Error; err != nil {
		return 0, nil, 0, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err = db.WithContext(ctx).Model(&Analysis{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return 0, nil, 0, err
	}

	statusCounts = make(map[string]int64, len(rows))
	for _, row := range rows {
		statusCounts[row.Status] = row.Count
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	if err = db.WithContext(ctx).Model(&Analysis{}).
		Where("created_at >= ?", weekAgo).
		Count(&recent).Error; err != nil {
		return 0, nil, 0, err
	}

	return total, statusCounts, recent, nil
}
