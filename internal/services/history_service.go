// Package services – HistoryService
//
// This file implements HistoryService, the persisted and idempotent side of
// the engine. It resolves birth-date records, stores at most one reading per
// (user, birth-date record, day), flips the saved flag and serves the
// history listings. Retention deletes are exposed for the maintenance job.
//
// Concurrent requests for the same key share one in-flight generation; the
// unique indexes on both tables cover races across processes.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/llm"
	"github.com/tbourn/go-horoscope-backend/internal/observability"
	"github.com/tbourn/go-horoscope-backend/internal/repo"
	"github.com/tbourn/go-horoscope-backend/internal/utils"
)

// ReadingGenerator produces readings and owns the notion of "today".
// *llm.Generator satisfies it.
type ReadingGenerator interface {
	Generate(ctx context.Context, p llm.GenerateParams) (*domain.Reading, error)
	Today() string
}

// HistoryService manages birth-date records and persisted readings.
type HistoryService struct {
	DB        *gorm.DB
	Generator ReadingGenerator

	flight singleflight.Group
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(db *gorm.DB, gen ReadingGenerator) *HistoryService {
	return &HistoryService{DB: db, Generator: gen}
}

// ResolveBirthDate returns the user's record for dob, creating it with the
// classified sign on first use.
func (s *HistoryService) ResolveBirthDate(ctx context.Context, userID, dob string) (*domain.BirthDate, error) {
	day, err := domain.ParseDate(dob)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}
	return repo.FindOrCreateBirthDate(ctx, s.DB, userID, domain.FormatDate(day), domain.Classify(day))
}

// GenerateAndStore returns today's entry for (user, dob), generating and
// persisting it on the first call of the day. Later calls the same day
// return the stored entry without contacting the provider.
func (s *HistoryService) GenerateAndStore(ctx context.Context, user domain.User, dob, birthTime string) (*domain.HoroscopeHistory, error) {
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "GenerateAndStore",
		trace.WithAttributes(attribute.String("user.id", user.ID)),
	)
	defer span.End()

	if strings.TrimSpace(birthTime) == "" {
		return nil, ErrMissingBirthTime
	}
	bt, err := domain.ParseBirthTime(birthTime)
	if err != nil {
		return nil, ErrInvalidBirthTime
	}

	rec, err := s.ResolveBirthDate(ctx, user.ID, dob)
	if err != nil {
		return nil, err
	}
	return s.storeForDay(ctx, user.ID, &rec.ID, llm.GenerateParams{
		Sign:        rec.ZodiacSign,
		DateOfBirth: rec.DateOfBirth,
		BirthTime:   bt,
	})
}

// GenerateAndStoreForSign persists today's reading for a user known only by
// sign. The entry carries no birth-date record.
func (s *HistoryService) GenerateAndStoreForSign(ctx context.Context, user domain.User, sign domain.ZodiacSign, birthTime string) (*domain.HoroscopeHistory, error) {
	if !sign.Known() {
		return nil, ErrUnknownSign
	}
	if strings.TrimSpace(birthTime) == "" {
		return nil, ErrMissingBirthTime
	}
	bt, err := domain.ParseBirthTime(birthTime)
	if err != nil {
		return nil, ErrInvalidBirthTime
	}
	return s.storeForDay(ctx, user.ID, nil, llm.GenerateParams{Sign: sign, BirthTime: bt})
}

// storeForDay implements find-or-generate for one (user, record, today) key.
// The shared work runs detached from any single caller's cancellation; a
// caller that gives up returns early while the others still get the result.
func (s *HistoryService) storeForDay(ctx context.Context, userID string, birthDateID *string, params llm.GenerateParams) (*domain.HoroscopeHistory, error) {
	date := s.Generator.Today()
	params.Date = date

	recKey := "-"
	if birthDateID != nil {
		recKey = *birthDateID
	}
	key := userID + "|" + recKey + "|" + date

	ch := s.flight.DoChan(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		existing, err := repo.FindHistoryForDay(ctx, s.DB, userID, birthDateID, date)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}

		r, err := s.Generator.Generate(ctx, params)
		observability.Generations.WithLabelValues("persisted", observability.Outcome(err)).Inc()
		if err != nil {
			return nil, generationErr(err)
		}

		h := domain.NewHoroscopeHistory(userID, birthDateID, *r)
		if err := repo.CreateHistory(ctx, s.DB, h); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// Another process won the insert; its row is the day's entry.
				return repo.FindHistoryForDay(ctx, s.DB, userID, birthDateID, date)
			}
			return nil, err
		}
		return h, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		out := *res.Val.(*domain.HoroscopeHistory)
		return &out, nil
	}
}

// MarkSaved flips isSave on the user's entry and returns it.
func (s *HistoryService) MarkSaved(ctx context.Context, userID, id string) (*domain.HoroscopeHistory, error) {
	if err := repo.MarkHistorySaved(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, userID, id)
}

// ListSaved returns the user's saved entries, newest day first.
func (s *HistoryService) ListSaved(ctx context.Context, userID string) ([]domain.HoroscopeHistory, error) {
	items, err := repo.ListSavedHistory(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.HoroscopeHistory{}
	}
	return items, nil
}

// GetByID returns one of the user's entries.
func (s *HistoryService) GetByID(ctx context.Context, userID, id string) (*domain.HoroscopeHistory, error) {
	h, err := repo.GetHistory(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListHistory returns a page of all the user's entries and the total count.
func (s *HistoryService) ListHistory(ctx context.Context, userID string, page, pageSize int) ([]domain.HoroscopeHistory, int64, error) {
	_, pageSize, offset := utils.ClampPage(page, pageSize)

	total, err := repo.CountHistory(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.HoroscopeHistory{}, 0, nil
	}
	items, err := repo.ListHistoryPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Stats returns the aggregate used for list ETags.
func (s *HistoryService) Stats(ctx context.Context, userID string) (repo.HistoryStats, error) {
	return repo.UserHistoryStats(ctx, s.DB, userID)
}

// PurgeOlderThan deletes every entry created before cutoff, saved or not.
func (s *HistoryService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return repo.DeleteHistoryBefore(ctx, s.DB, cutoff)
}
