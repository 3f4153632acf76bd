package weather

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/pkg/httputil"
)

// Handler handles HTTP requests for on-demand weather reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new weather handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers weather routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{userID}/weather/current", h.GetCurrent)
	r.Get("/users/{userID}/weather/moon", h.GetMoon)
}

// GetCurrent handles GET /users/{userID}/weather/current requests.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	units := domain.Units(r.URL.Query().Get("units"))
	if units == "" {
		units = domain.UnitsImperial
	}
	if !units.Valid() {
		httputil.Error(w, http.StatusBadRequest, "units must be imperial or metric")
		return
	}

	report, err := h.service.CurrentByUser(r.Context(), userID, r.URL.Query().Get("zip"), units)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.Success(w, http.StatusOK, report)
}

// GetMoon handles GET /users/{userID}/weather/moon requests.
func (h *Handler) GetMoon(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	report, err := h.service.MoonByUser(r.Context(), userID, r.URL.Query().Get("zip"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.Success(w, http.StatusOK, report)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoZip), errors.Is(err, ErrInvalidZip):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, geo.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnavailable):
		httputil.Error(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("internal error", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
