// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the BirthDate
// model, the per-user record of each date of birth a reading was made for.
//
// Rows are created lazily and never updated. The (user_id, date_of_birth)
// unique index makes concurrent creation safe: the loser receives
// ErrDuplicate and is expected to re-read the winner.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// GetBirthDate fetches the record for (userID, dob) or returns ErrNotFound.
func GetBirthDate(ctx context.Context, db *gorm.DB, userID, dob string) (*domain.BirthDate, error) {
	var b domain.BirthDate
	err := db.WithContext(ctx).
		Where("user_id = ? AND date_of_birth = ?", userID, dob).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBirthDate inserts a new record and returns ErrDuplicate when one
// already exists for (userID, dob).
func CreateBirthDate(ctx context.Context, db *gorm.DB, userID, dob string, sign domain.ZodiacSign) (*domain.BirthDate, error) {
	b := &domain.BirthDate{
		ID:          uuid.NewString(),
		UserID:      userID,
		DateOfBirth: dob,
		ZodiacSign:  sign,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return b, nil
}

// FindOrCreateBirthDate returns the existing record for (userID, dob) or
// creates it. A concurrent insert that wins the race is re-read and returned.
func FindOrCreateBirthDate(ctx context.Context, db *gorm.DB, userID, dob string, sign domain.ZodiacSign) (*domain.BirthDate, error) {
	b, err := GetBirthDate(ctx, db, userID, dob)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	b, err = CreateBirthDate(ctx, db, userID, dob, sign)
	if errors.Is(err, ErrDuplicate) {
		return GetBirthDate(ctx, db, userID, dob)
	}
	return b, err
}
