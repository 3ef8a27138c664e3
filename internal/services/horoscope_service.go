// Package services – HoroscopeService
//
// HoroscopeService is the façade the HTTP layer talks to. It has two read
// paths on purpose:
//
//   - GetForUser serves "today's horoscope" from the in-memory daily cache,
//     generating on a miss without persisting anything.
//   - GenerateAndSave / GenerateAndSaveDefault go through HistoryService for
//     idempotent, persisted generation and never touch the cache.
//
// Both paths collapse concurrent identical requests into one generation.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-horoscope-backend/internal/cache"
	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/llm"
	"github.com/tbourn/go-horoscope-backend/internal/observability"
)

// HoroscopeService composes the generator, the daily cache and the history store.
type HoroscopeService struct {
	Generator ReadingGenerator
	Cache     *cache.HoroscopeCache
	History   *HistoryService

	flight singleflight.Group
}

// NewHoroscopeService constructs a HoroscopeService. A nil cache gets a
// fresh one.
func NewHoroscopeService(gen ReadingGenerator, c *cache.HoroscopeCache, h *HistoryService) *HoroscopeService {
	if c == nil {
		c = cache.NewHoroscopeCache()
	}
	return &HoroscopeService{Generator: gen, Cache: c, History: h}
}

// SignFor resolves the user's sign: the stored sign when known, otherwise
// the classification of the profile date of birth.
func (s *HoroscopeService) SignFor(user domain.User) (domain.ZodiacSign, error) {
	if user.ZodiacSign.Known() {
		return user.ZodiacSign, nil
	}
	if user.DateOfBirth != "" {
		if d, err := domain.ParseDate(user.DateOfBirth); err == nil {
			return domain.Classify(d), nil
		}
	}
	return domain.UnknownSign, ErrUnknownSign
}

// GetForUser returns today's reading for the user from the cache, generating
// and caching it on a miss.
func (s *HoroscopeService) GetForUser(ctx context.Context, user domain.User) (*domain.Reading, error) {
	ctx, span := otel.Tracer("services/HoroscopeService").Start(ctx, "GetForUser",
		trace.WithAttributes(attribute.String("user.id", user.ID)),
	)
	defer span.End()

	sign, err := s.SignFor(user)
	if err != nil {
		return nil, err
	}

	date := s.Generator.Today()
	if r, ok := s.Cache.Get(user.ID, date); ok {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &r, nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	params := llm.GenerateParams{
		Sign:        sign,
		DateOfBirth: optionalDate(user.DateOfBirth),
		BirthTime:   optionalBirthTime(user.BirthTime),
		Date:        date,
	}
	ch := s.flight.DoChan(cache.Key(user.ID, date), func() (any, error) {
		// A flight that finished just before this one started may have
		// filled the cache already.
		if r, ok := s.Cache.Get(user.ID, date); ok {
			return r, nil
		}
		r, err := s.Generator.Generate(context.WithoutCancel(ctx), params)
		observability.Generations.WithLabelValues("ephemeral", observability.Outcome(err)).Inc()
		if err != nil {
			return nil, generationErr(err)
		}
		s.Cache.Put(user.ID, date, *r)
		return *r, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		r := res.Val.(domain.Reading)
		return &r, nil
	}
}

// GenerateAndSave returns today's persisted entry for an explicit date of
// birth, generating it on the first call of the day.
func (s *HoroscopeService) GenerateAndSave(ctx context.Context, user domain.User, dob string) (*domain.HoroscopeHistory, error) {
	return s.History.GenerateAndStore(ctx, user, dob, user.BirthTime)
}

// GenerateAndSaveDefault persists today's entry using the profile: the
// profile date of birth when present, otherwise the stored sign with no
// birth-date record.
func (s *HoroscopeService) GenerateAndSaveDefault(ctx context.Context, user domain.User) (*domain.HoroscopeHistory, error) {
	if user.DateOfBirth != "" {
		return s.History.GenerateAndStore(ctx, user, user.DateOfBirth, user.BirthTime)
	}
	if user.ZodiacSign.Known() {
		return s.History.GenerateAndStoreForSign(ctx, user, user.ZodiacSign, user.BirthTime)
	}
	return nil, ErrUnknownSign
}

// Preview generates a reading for an arbitrary date of birth without caching
// or persisting it.
func (s *HoroscopeService) Preview(ctx context.Context, user domain.User, dob string) (*domain.Reading, error) {
	ctx, span := otel.Tracer("services/HoroscopeService").Start(ctx, "Preview",
		trace.WithAttributes(attribute.String("user.id", user.ID)),
	)
	defer span.End()

	d, err := domain.ParseDate(dob)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}
	r, err := s.Generator.Generate(ctx, llm.GenerateParams{
		Sign:        domain.Classify(d),
		DateOfBirth: domain.FormatDate(d),
		BirthTime:   optionalBirthTime(user.BirthTime),
	})
	observability.Generations.WithLabelValues("preview", observability.Outcome(err)).Inc()
	if err != nil {
		return nil, generationErr(err)
	}
	return r, nil
}

// ClearCache empties the daily cache and returns how many readings it held.
func (s *HoroscopeService) ClearCache() int { return s.Cache.Clear() }

// optionalDate normalizes a profile date, dropping it when unparsable.
func optionalDate(s string) string {
	v, err := domain.NormalizeDate(s)
	if err != nil {
		return ""
	}
	return v
}

// optionalBirthTime normalizes a profile birth time, dropping it when unparsable.
func optionalBirthTime(s string) string {
	v, err := domain.ParseBirthTime(s)
	if err != nil {
		return ""
	}
	return v
}
