package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/llm"
	"github.com/tbourn/go-horoscope-backend/internal/repo"
)

// fakeGenerator counts calls and can block on a gate so tests can hold a
// generation in flight.
type fakeGenerator struct {
	mu    sync.Mutex
	today string
	err   error
	gate  chan struct{}
	last  llm.GenerateParams

	calls atomic.Int32
}

func newFakeGenerator(today string) *fakeGenerator {
	return &fakeGenerator{today: today}
}

func (f *fakeGenerator) Today() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.today
}

func (f *fakeGenerator) setToday(d string) {
	f.mu.Lock()
	f.today = d
	f.mu.Unlock()
}

func (f *fakeGenerator) lastParams() llm.GenerateParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeGenerator) Generate(ctx context.Context, p llm.GenerateParams) (*domain.Reading, error) {
	n := f.calls.Add(1)

	f.mu.Lock()
	f.last = p
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	date := p.Date
	if date == "" {
		date = f.Today()
	}
	return &domain.Reading{
		Sign:                 p.Sign.DisplayName(),
		Date:                 date,
		Scores:               domain.DefaultScores,
		Overview:             fmt.Sprintf("reading #%d", n),
		LoveAndRelationships: "love",
		CareerAndStudies:     "career",
		HealthAndWellbeing:   "health",
		MoneyAndFinances:     "money",
	}, nil
}

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}
