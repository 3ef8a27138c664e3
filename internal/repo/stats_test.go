package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestUserHistoryStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := UserHistoryStats(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error due to missing horoscope_history table")
	}
}

func TestUserHistoryStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.BirthDate{}, &domain.HoroscopeHistory{})
	st, err := UserHistoryStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("UserHistoryStats error: %v", err)
	}
	if st.Total != 0 || st.Saved != 0 || st.Latest != nil {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}

func TestUserHistoryStats_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.BirthDate{}, &domain.HoroscopeHistory{})
	ctx := context.Background()

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other user

	seed := []struct {
		user, date string
		at         time.Time
		saved      bool
	}{
		{"u1", "2025-01-02", t1, true},
		{"u1", "2025-03-04", t2, false},
		{"u2", "2025-05-01", t3, true},
	}
	for _, s := range seed {
		h := domain.NewHoroscopeHistory(s.user, nil, sampleReading(s.date))
		h.CreatedAt = s.at
		h.IsSave = s.saved
		if err := CreateHistory(ctx, db, h); err != nil {
			t.Fatalf("seed %s: %v", s.date, err)
		}
	}

	st, err := UserHistoryStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("UserHistoryStats error: %v", err)
	}
	if st.Total != 2 || st.Saved != 1 {
		t.Fatalf("expected total=2 saved=1, got %+v", st)
	}
	if st.Latest == nil || !st.Latest.Equal(t2) {
		t.Fatalf("expected latest %v, got %v", t2, st.Latest)
	}
}

// Force the last query (SELECT created_at ...) to fail by renaming the column.
func TestUserHistoryStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.BirthDate{}, &domain.HoroscopeHistory{})
	ctx := context.Background()

	h := domain.NewHoroscopeHistory("uerr", nil, sampleReading("2025-01-01"))
	if err := CreateHistory(ctx, db, h); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Exec(`ALTER TABLE horoscope_history RENAME COLUMN created_at TO created_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}
	if _, err := UserHistoryStats(ctx, db, "uerr"); err == nil {
		t.Fatalf("expected error from latest select after column rename")
	}
}
