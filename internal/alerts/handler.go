package alerts

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidZip, Status: http.StatusBadRequest, Message: "zip code must be exactly 5 digits"},
	{Error: ErrInvalidSeverity, Status: http.StatusBadRequest, Message: "minimum severity must be advisory, watch or warning"},
}

// Handler handles alert preference HTTP requests.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new alert preference handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers alert preference routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userID}/alert-prefs", func(r chi.Router) {
		r.Get("/", h.Prefs)
		r.Put("/", h.SetPrefs)
	})
}

// SetPrefsRequest is the request body for updating alert preferences.
type SetPrefsRequest struct {
	Enabled     bool   `json:"enabled"`
	Zip         string `json:"zip"`
	MinSeverity string `json:"min_severity" validate:"omitempty,oneof=advisory watch warning"`
}

// PrefsResponse is the API representation of alert preferences.
type PrefsResponse struct {
	UserID      int64  `json:"user_id"`
	Enabled     bool   `json:"enabled"`
	Zip         string `json:"zip,omitempty"`
	MinSeverity string `json:"min_severity"`
}

func newPrefsResponse(prefs domain.AlertPrefs) PrefsResponse {
	return PrefsResponse{
		UserID:      prefs.UserID,
		Enabled:     prefs.Enabled,
		Zip:         prefs.Zip,
		MinSeverity: prefs.MinSeverity.String(),
	}
}

// Prefs handles GET /users/{userID}/alert-prefs requests.
func (h *Handler) Prefs(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	prefs, err := h.service.Prefs(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, newPrefsResponse(prefs))
}

// SetPrefs handles PUT /users/{userID}/alert-prefs requests.
func (h *Handler) SetPrefs(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req SetPrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	prefs, err := h.service.SetPrefs(r.Context(), userID, SetPrefsInput{
		Enabled:     req.Enabled,
		Zip:         req.Zip,
		MinSeverity: req.MinSeverity,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, newPrefsResponse(prefs))
}
