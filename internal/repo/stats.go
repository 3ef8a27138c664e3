// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over a user's
// horoscope history, used by the HTTP layer to build weak ETags for the
// history listings.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// HistoryStats summarizes a user's history. Entries are immutable apart from
// the one-way saved flag, so these three values change whenever either
// listing would.
type HistoryStats struct {
	Total  int64
	Saved  int64
	Latest *time.Time // greatest created_at, nil when Total is 0
}

// UserHistoryStats returns HistoryStats for userID.
func UserHistoryStats(ctx context.Context, db *gorm.DB, userID string) (HistoryStats, error) {
	var st HistoryStats
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.HoroscopeHistory{}).Where("user_id = ?", userID)
	}

	if err := scoped().Count(&st.Total).Error; err != nil {
		return HistoryStats{}, err
	}
	if st.Total == 0 {
		return st, nil
	}
	if err := scoped().Where("is_save = ?", true).Count(&st.Saved).Error; err != nil {
		return HistoryStats{}, err
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err := scoped().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return HistoryStats{}, err
	}
	st.Latest = &row.CreatedAt
	return st, nil
}
