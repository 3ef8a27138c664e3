// Horoscope HTTP handlers.
//
// This file exposes the REST endpoints of the horoscope API:
//   - GET  /horoscope/me                 (today's cached reading)
//   - POST /horoscope/preview            (ephemeral reading for any birth date)
//   - POST /horoscope/generate           (persisted reading for a birth date)
//   - POST /horoscope/generate/me        (persisted reading from the profile)
//   - GET  /horoscope/history            (paginated, ETag support)
//   - GET  /horoscope/history/saved      (ETag support)
//   - GET  /horoscope/history/{id}
//   - PUT  /horoscope/history/{id}/save
//
// Handlers are transport-thin: they read the caller profile set by
// middleware.Identity, call the services and translate the results.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/http/middleware"
	"github.com/tbourn/go-horoscope-backend/internal/repo"
	"github.com/tbourn/go-horoscope-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// HoroscopeService produces readings for the current caller.
type HoroscopeService interface {
	// GetForUser returns today's reading, served from the daily cache.
	GetForUser(ctx context.Context, user domain.User) (*domain.Reading, error)
	// Preview generates a reading for dob without caching or persisting it.
	Preview(ctx context.Context, user domain.User, dob string) (*domain.Reading, error)
	// GenerateAndSave returns today's persisted entry for dob.
	GenerateAndSave(ctx context.Context, user domain.User, dob string) (*domain.HoroscopeHistory, error)
	// GenerateAndSaveDefault returns today's persisted entry for the profile.
	GenerateAndSaveDefault(ctx context.Context, user domain.User) (*domain.HoroscopeHistory, error)
}

// HistoryService reads and updates a user's stored readings.
type HistoryService interface {
	ListHistory(ctx context.Context, userID string, page, pageSize int) ([]domain.HoroscopeHistory, int64, error)
	ListSaved(ctx context.Context, userID string) ([]domain.HoroscopeHistory, error)
	GetByID(ctx context.Context, userID, id string) (*domain.HoroscopeHistory, error)
	MarkSaved(ctx context.Context, userID, id string) (*domain.HoroscopeHistory, error)
	Stats(ctx context.Context, userID string) (repo.HistoryStats, error)
}

// Handlers groups the horoscope endpoints.
type Handlers struct {
	horoscope HoroscopeService
	history   HistoryService
}

// New constructs a Handlers bound to the given services.
func New(horoscope HoroscopeService, history HistoryService) *Handlers {
	return &Handlers{horoscope: horoscope, history: history}
}

//
// DTOs
//

// BirthDateRequest is the JSON payload of the preview and generate endpoints.
type BirthDateRequest struct {
	// DateOfBirth is a calendar day, YYYY-MM-DD.
	DateOfBirth string `json:"dateOfBirth" binding:"required" example:"1990-01-15"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListHistoryResponse wraps a page of history entries.
type ListHistoryResponse struct {
	Items      []domain.HoroscopeHistory `json:"items"`
	Pagination Pagination                `json:"pagination"`
}

// ListSavedResponse wraps the saved history entries.
type ListSavedResponse struct {
	Items []domain.HoroscopeHistory `json:"items"`
}

//
// Helpers
//

// currentUser returns the profile set by middleware.Identity, failing the
// request with 401 when the route was mounted without it.
func currentUser(c *gin.Context) (domain.User, bool) {
	u, found := middleware.UserFrom(c)
	if !found || u.ID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing caller identity")
		return domain.User{}, false
	}
	return u, true
}

func bindBirthDate(c *gin.Context) (string, bool) {
	var req BirthDateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DateOfBirth) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "dateOfBirth is required (YYYY-MM-DD)")
		return "", false
	}
	return strings.TrimSpace(req.DateOfBirth), true
}

func historyID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "history id must be a UUID")
		return "", false
	}
	return id, true
}

// checkETag sets a weak ETag derived from the user's history stats and
// reports whether the request was answered with 304. Stats failures only
// skip the conditional response.
func (h *Handlers) checkETag(c *gin.Context, scope, userID string) bool {
	st, err := h.history.Stats(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("history stats failed; skipping etag")
		return false
	}
	var ts int64
	if st.Latest != nil {
		ts = st.Latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d:%d"`, scope, userID, st.Total, st.Saved, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Handlers
//

// GetMyHoroscope godoc
// @ID          getMyHoroscope
// @Summary     Today's horoscope
// @Description Returns today's reading for the caller's sign. Readings are cached per user and day.
// @Tags        Horoscope
// @Produce     json
//
// @Param       X-User-ID           header  string  true  "Caller ID"                 example(user123)
// @Param       X-User-Birth-Date   header  string  false "Profile date of birth"     example(1990-01-15)
// @Param       X-User-Birth-Time   header  string  false "Profile birth time"        example(08:30)
// @Param       X-User-Zodiac-Sign  header  string  false "Stored sign"               example(CAPRICORN)
//
// @Success     200  {object}  domain.Reading
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     404  {object}  handlers.ErrorResponse "Sign unknown"
// @Failure     503  {object}  handlers.ErrorResponse "Generation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /horoscope/me [get]
func (h *Handlers) GetMyHoroscope(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	r, err := h.horoscope.GetForUser(c.Request.Context(), user)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// Preview godoc
// @ID          previewHoroscope
// @Summary     Preview a horoscope
// @Description Generates today's reading for an arbitrary date of birth. Nothing is cached or stored.
// @Tags        Horoscope
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller ID"  example(user123)
// @Param       body       body    handlers.BirthDateRequest  true  "Date of birth"
//
// @Success     200  {object}  domain.Reading
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Failure     503  {object}  handlers.ErrorResponse "Generation failed"
// @Router      /horoscope/preview [post]
func (h *Handlers) Preview(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	dob, valid := bindBirthDate(c)
	if !valid {
		return
	}
	r, err := h.horoscope.Preview(c.Request.Context(), user, dob)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// Generate godoc
// @ID          generateHoroscope
// @Summary     Generate and store today's horoscope
// @Description Returns today's stored entry for the given date of birth, generating it on the first call of the day.
// @Description Requires the caller's birth time.
// @Tags        Horoscope
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID          header  string  true  "Caller ID"           example(user123)
// @Param       X-User-Birth-Time  header  string  true  "Caller birth time"   example(08:30)
// @Param       body               body    handlers.BirthDateRequest  true  "Date of birth"
//
// @Success     200  {object}  domain.HoroscopeHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse "Missing birth time"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Failure     503  {object}  handlers.ErrorResponse "Generation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /horoscope/generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	dob, valid := bindBirthDate(c)
	if !valid {
		return
	}
	entry, err := h.horoscope.GenerateAndSave(c.Request.Context(), user, dob)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// GenerateMine godoc
// @ID          generateMyHoroscope
// @Summary     Generate and store today's horoscope from the profile
// @Description Uses the profile date of birth, or the stored sign when no date of birth is known.
// @Tags        Horoscope
// @Produce     json
//
// @Param       X-User-ID           header  string  true  "Caller ID"              example(user123)
// @Param       X-User-Birth-Date   header  string  false "Profile date of birth"  example(1990-01-15)
// @Param       X-User-Birth-Time   header  string  true  "Profile birth time"     example(08:30)
// @Param       X-User-Zodiac-Sign  header  string  false "Stored sign"            example(CAPRICORN)
//
// @Success     200  {object}  domain.HoroscopeHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Sign unknown"
// @Failure     422  {object}  handlers.ErrorResponse "Missing birth time"
// @Failure     503  {object}  handlers.ErrorResponse "Generation failed"
// @Router      /horoscope/generate/me [post]
func (h *Handlers) GenerateMine(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	entry, err := h.horoscope.GenerateAndSaveDefault(c.Request.Context(), user)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// ListHistory godoc
// @ID          listHistory
// @Summary     List horoscope history (paginated)
// @Description Newest day first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "Caller ID"                   example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListHistoryResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /horoscope/history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	page, pageSize, _ := utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), utils.DefaultPage),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
	if h.checkETag(c, fmt.Sprintf("history:%d:%d", page, pageSize), user.ID) {
		return
	}

	items, total, err := h.history.ListHistory(c.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.HoroscopeHistory{}
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListHistoryResponse{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ListSaved godoc
// @ID          listSavedHistory
// @Summary     List saved horoscopes
// @Description Saved entries, newest day first. Supports weak ETag via If-None-Match.
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "Caller ID"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListSavedResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /horoscope/history/saved [get]
func (h *Handlers) ListSaved(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	if h.checkETag(c, "saved", user.ID) {
		return
	}
	items, err := h.history.ListSaved(c.Request.Context(), user.ID)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.HoroscopeHistory{}
	}
	ok(c, http.StatusOK, ListSavedResponse{Items: items})
}

// GetHistory godoc
// @ID          getHistory
// @Summary     Get a stored horoscope
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller ID"          example(user123)
// @Param       id         path    string  true  "History entry ID"   format(uuid)
//
// @Success     200  {object}  domain.HoroscopeHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /horoscope/history/{id} [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	id, valid := historyID(c)
	if !valid {
		return
	}
	entry, err := h.history.GetByID(c.Request.Context(), user.ID, id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

// SaveHistory godoc
// @ID          saveHistory
// @Summary     Save a stored horoscope
// @Description Marks the entry as saved. Saving twice is a no-op; entries cannot be unsaved.
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller ID"          example(user123)
// @Param       id         path    string  true  "History entry ID"   format(uuid)
//
// @Success     200  {object}  domain.HoroscopeHistory
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /horoscope/history/{id}/save [put]
func (h *Handlers) SaveHistory(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	id, valid := historyID(c)
	if !valid {
		return
	}
	entry, err := h.history.MarkSaved(c.Request.Context(), user.ID, id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}
