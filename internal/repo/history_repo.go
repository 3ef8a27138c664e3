// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// HoroscopeHistory model.
//
// Error semantics:
//   - Lookups that match nothing return ErrNotFound (gorm.ErrRecordNotFound).
//   - CreateHistory returns ErrDuplicate when the (user_id, birth_date_id,
//     date) unique index rejects the row.
//   - Everything else is the raw gorm error.
//
// Ownership is enforced in the queries themselves: every per-entry lookup
// filters on user_id, so a foreign id is indistinguishable from a missing one.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// FindHistoryForDay returns the entry for (userID, birthDateID, date). A nil
// birthDateID matches rows stored without a birth-date record.
func FindHistoryForDay(ctx context.Context, db *gorm.DB, userID string, birthDateID *string, date string) (*domain.HoroscopeHistory, error) {
	q := db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date)
	if birthDateID == nil {
		q = q.Where("birth_date_id IS NULL")
	} else {
		q = q.Where("birth_date_id = ?", *birthDateID)
	}

	var h domain.HoroscopeHistory
	if err := q.Order("created_at asc").First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHistory inserts h, assigning a UUID and a UTC timestamp when unset.
func CreateHistory(ctx context.Context, db *gorm.DB, h *domain.HoroscopeHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetHistory fetches one entry by id, owned by userID.
func GetHistory(ctx context.Context, db *gorm.DB, id, userID string) (*domain.HoroscopeHistory, error) {
	var h domain.HoroscopeHistory
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkHistorySaved sets is_save on the entry. It returns ErrNotFound when no
// entry with that id belongs to userID. Marking an already saved entry is a
// no-op that still succeeds.
func MarkHistorySaved(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.HoroscopeHistory{}).
			Where("id = ? AND user_id = ?", id, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return tx.Model(&domain.HoroscopeHistory{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_save", true).Error
	})
}

// ListSavedHistory returns the user's saved entries, newest reading day first
// and most recently created first within a day.
func ListSavedHistory(ctx context.Context, db *gorm.DB, userID string) ([]domain.HoroscopeHistory, error) {
	var out []domain.HoroscopeHistory
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_save = ?", userID, true).
		Order("date desc, created_at desc").
		Find(&out).Error
	return out, err
}

// CountHistory returns the number of entries owned by userID.
func CountHistory(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.HoroscopeHistory{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListHistoryPage returns a page of the user's entries in the same order as
// ListSavedHistory. Use CountHistory for the total.
func ListHistoryPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.HoroscopeHistory, error) {
	var out []domain.HoroscopeHistory
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteHistoryBefore removes every entry created before cutoff, saved or
// not, and returns how many rows went.
func DeleteHistoryBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&domain.HoroscopeHistory{})
	return res.RowsAffected, res.Error
}
