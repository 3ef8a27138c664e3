package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-horoscope-backend/internal/cache"
	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/http/middleware"
	"github.com/tbourn/go-horoscope-backend/internal/llm"
	"github.com/tbourn/go-horoscope-backend/internal/repo"
	"github.com/tbourn/go-horoscope-backend/internal/services"
)

// ---------- stub generator + wiring ----------

type stubGenerator struct {
	today   string
	failing atomic.Bool
	calls   atomic.Int32
}

func (g *stubGenerator) Today() string { return g.today }

func (g *stubGenerator) Generate(_ context.Context, p llm.GenerateParams) (*domain.Reading, error) {
	n := g.calls.Add(1)
	if g.failing.Load() {
		return nil, fmt.Errorf("%w: provider timeout", llm.ErrGeneration)
	}
	date := p.Date
	if date == "" {
		date = g.today
	}
	return &domain.Reading{
		Sign:                 p.Sign.DisplayName(),
		Date:                 date,
		Scores:               domain.Scores{Health: 81, Love: 72, Career: 93},
		Overview:             fmt.Sprintf("reading #%d", n),
		LoveAndRelationships: "love",
		CareerAndStudies:     "career",
		HealthAndWellbeing:   "health",
		MoneyAndFinances:     "money",
	}, nil
}

type testAPI struct {
	r   *gin.Engine
	gen *stubGenerator
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gen := &stubGenerator{today: "2024-07-27"}
	hist := services.NewHistoryService(db, gen)
	horo := services.NewHoroscopeService(gen, cache.NewHoroscopeCache(), hist)
	h := New(horo, hist)

	r := gin.New()
	r.Use(middleware.RequestID())
	g := r.Group("/horoscope", middleware.Identity())
	g.GET("/me", h.GetMyHoroscope)
	g.POST("/preview", h.Preview)
	g.POST("/generate", h.Generate)
	g.POST("/generate/me", h.GenerateMine)
	g.GET("/history", h.ListHistory)
	g.GET("/history/saved", h.ListSaved)
	g.GET("/history/:id", h.GetHistory)
	g.PUT("/history/:id/save", h.SaveHistory)

	return &testAPI{r: r, gen: gen}
}

type profile struct {
	id, dob, birthTime, sign string
}

func (a *testAPI) do(t *testing.T, method, path string, p profile, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if p.id != "" {
		req.Header.Set(middleware.HeaderUserID, p.id)
	}
	if p.dob != "" {
		req.Header.Set(middleware.HeaderUserBirthDate, p.dob)
	}
	if p.birthTime != "" {
		req.Header.Set(middleware.HeaderUserBirthTime, p.birthTime)
	}
	if p.sign != "" {
		req.Header.Set(middleware.HeaderUserZodiacSign, p.sign)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code || er.RequestID == "" {
		t.Fatalf("unexpected error body: %+v", er)
	}
}

var alice = profile{id: "alice", dob: "1990-01-15", birthTime: "08:30"}

// ---------- tests ----------

func TestGetMyHoroscope(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/horoscope/me", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	r := decode[domain.Reading](t, w)
	if r.Sign != "Capricorn" || r.Date != "2024-07-27" || r.Scores.Career != 93 {
		t.Fatalf("unexpected reading: %+v", r)
	}

	// Served from cache the second time.
	again := decode[domain.Reading](t, api.do(t, http.MethodGet, "/horoscope/me", alice, nil))
	if again.Overview != r.Overview || api.gen.calls.Load() != 1 {
		t.Fatalf("expected cached reading, calls=%d", api.gen.calls.Load())
	}

	t.Run("stored sign only", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/horoscope/me", profile{id: "bob", sign: "leo"}, nil)
		if r := decode[domain.Reading](t, w); r.Sign != "Leo" {
			t.Fatalf("sign = %q", r.Sign)
		}
	})

	t.Run("unknown sign", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/horoscope/me", profile{id: "carol"}, nil)
		expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
	})

	t.Run("missing identity", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/horoscope/me", profile{}, nil)
		expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	})

	t.Run("generation failure", func(t *testing.T) {
		api.gen.failing.Store(true)
		defer api.gen.failing.Store(false)
		w := api.do(t, http.MethodGet, "/horoscope/me", profile{id: "dave", sign: "ARIES"}, nil)
		expectError(t, w, http.StatusServiceUnavailable, ErrCodeGenerationFailed)
		if er := decode[ErrorResponse](t, w); er.Message != services.ErrGenerationFailed.Error() {
			t.Fatalf("provider detail leaked: %q", er.Message)
		}
	})
}

func TestPreview(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/horoscope/preview", alice, BirthDateRequest{DateOfBirth: "1988-08-01"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if r := decode[domain.Reading](t, w); r.Sign != "Leo" {
		t.Fatalf("sign = %q", r.Sign)
	}

	// Nothing persisted.
	list := decode[ListHistoryResponse](t, api.do(t, http.MethodGet, "/horoscope/history", alice, nil))
	if list.Pagination.Total != 0 {
		t.Fatalf("preview must not persist, total=%d", list.Pagination.Total)
	}

	expectError(t, api.do(t, http.MethodPost, "/horoscope/preview", alice, map[string]string{}), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, api.do(t, http.MethodPost, "/horoscope/preview", alice, BirthDateRequest{DateOfBirth: "1988-02-30"}), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestGenerate(t *testing.T) {
	api := newTestAPI(t)
	body := BirthDateRequest{DateOfBirth: "1990-01-15"}

	w := api.do(t, http.MethodPost, "/horoscope/generate", alice, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	first := decode[domain.HoroscopeHistory](t, w)
	if first.ID == "" || first.Sign != "Capricorn" || first.IsSave || first.BirthDateID == nil {
		t.Fatalf("unexpected entry: %+v", first)
	}
	if first.Scores.Data().Love != 72 {
		t.Fatalf("scores not serialized: %+v", first.Scores.Data())
	}

	second := decode[domain.HoroscopeHistory](t, api.do(t, http.MethodPost, "/horoscope/generate", alice, body))
	if second.ID != first.ID || api.gen.calls.Load() != 1 {
		t.Fatalf("same-day generate must return the stored entry")
	}

	t.Run("missing birth time", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/horoscope/generate", profile{id: "alice"}, body)
		expectError(t, w, http.StatusUnprocessableEntity, ErrCodeMissingBirthTime)
	})
	t.Run("invalid birth time", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/horoscope/generate", profile{id: "alice", birthTime: "25:99"}, body)
		expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
	t.Run("invalid date of birth", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/horoscope/generate", alice, BirthDateRequest{DateOfBirth: "15/01/1990"})
		expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
}

func TestGenerateMine(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/horoscope/generate/me", alice, nil)
	if e := decode[domain.HoroscopeHistory](t, w); w.Code != http.StatusOK || e.Sign != "Capricorn" {
		t.Fatalf("status=%d entry=%+v", w.Code, e)
	}

	bySign := profile{id: "erin", sign: "PISCES", birthTime: "21:00"}
	w = api.do(t, http.MethodPost, "/horoscope/generate/me", bySign, nil)
	if e := decode[domain.HoroscopeHistory](t, w); w.Code != http.StatusOK || e.Sign != "Pisces" || e.BirthDateID != nil {
		t.Fatalf("status=%d entry=%+v", w.Code, e)
	}

	expectError(t, api.do(t, http.MethodPost, "/horoscope/generate/me", profile{id: "frank", birthTime: "10:00"}, nil),
		http.StatusNotFound, ErrCodeNotFound)
}

func TestHistory_ListGetSave(t *testing.T) {
	api := newTestAPI(t)

	var ids []string
	for _, dob := range []string{"1990-01-15", "1985-05-05", "1979-11-11"} {
		w := api.do(t, http.MethodPost, "/horoscope/generate", alice, BirthDateRequest{DateOfBirth: dob})
		ids = append(ids, decode[domain.HoroscopeHistory](t, w).ID)
	}

	// Pagination
	w := api.do(t, http.MethodGet, "/horoscope/history?page=2&page_size=2", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := decode[ListHistoryResponse](t, w)
	if len(page.Items) != 1 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || page.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", page.Pagination)
	}

	// Get by id, own vs foreign vs malformed
	if w := api.do(t, http.MethodGet, "/horoscope/history/"+ids[0], alice, nil); w.Code != http.StatusOK {
		t.Fatalf("get own = %d", w.Code)
	}
	expectError(t, api.do(t, http.MethodGet, "/horoscope/history/"+ids[0], profile{id: "mallory"}, nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, api.do(t, http.MethodGet, "/horoscope/history/"+uuid.NewString(), alice, nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, api.do(t, http.MethodGet, "/horoscope/history/nope", alice, nil), http.StatusBadRequest, ErrCodeBadRequest)

	// Save is idempotent and shows up in the saved list.
	for i := 0; i < 2; i++ {
		w := api.do(t, http.MethodPut, "/horoscope/history/"+ids[1]+"/save", alice, nil)
		if e := decode[domain.HoroscopeHistory](t, w); w.Code != http.StatusOK || !e.IsSave {
			t.Fatalf("save #%d: status=%d entry=%+v", i, w.Code, e)
		}
	}
	expectError(t, api.do(t, http.MethodPut, "/horoscope/history/"+ids[2]+"/save", profile{id: "mallory"}, nil), http.StatusNotFound, ErrCodeNotFound)

	saved := decode[ListSavedResponse](t, api.do(t, http.MethodGet, "/horoscope/history/saved", alice, nil))
	if len(saved.Items) != 1 || saved.Items[0].ID != ids[1] {
		t.Fatalf("unexpected saved list: %+v", saved.Items)
	}

	empty := api.do(t, http.MethodGet, "/horoscope/history/saved", profile{id: "nobody"}, nil)
	if !bytes.Contains(empty.Body.Bytes(), []byte(`"items":[]`)) {
		t.Fatalf("empty list must serialize as []: %s", empty.Body.String())
	}
}

func TestHistory_ETag(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/horoscope/generate", alice, BirthDateRequest{DateOfBirth: "1990-01-15"})
	id := decode[domain.HoroscopeHistory](t, w).ID

	for _, path := range []string{"/horoscope/history", "/horoscope/history/saved"} {
		w := api.do(t, http.MethodGet, path, alice, nil)
		etag := w.Header().Get("ETag")
		if w.Code != http.StatusOK || etag == "" {
			t.Fatalf("%s: status=%d etag=%q", path, w.Code, etag)
		}

		w = api.do(t, http.MethodGet, path, alice, nil, "If-None-Match", etag)
		if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
			t.Fatalf("%s: expected 304, got %d", path, w.Code)
		}

		other := api.do(t, http.MethodGet, path, profile{id: "bob"}, nil).Header().Get("ETag")
		if other == etag {
			t.Fatalf("%s: etag must be per user", path)
		}
	}

	before := api.do(t, http.MethodGet, "/horoscope/history/saved", alice, nil).Header().Get("ETag")
	api.do(t, http.MethodPut, "/horoscope/history/"+id+"/save", alice, nil)
	w = api.do(t, http.MethodGet, "/horoscope/history/saved", alice, nil, "If-None-Match", before)
	if w.Code != http.StatusOK {
		t.Fatalf("saving must change the etag, got %d", w.Code)
	}

	p1 := api.do(t, http.MethodGet, "/horoscope/history?page=1", alice, nil).Header().Get("ETag")
	p2 := api.do(t, http.MethodGet, "/horoscope/history?page=2", alice, nil).Header().Get("ETag")
	if p1 == p2 {
		t.Fatalf("etag must differ per page")
	}
}
