package profile

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrLocationNotFound, Status: http.StatusNotFound, Message: "no saved location"},
	{Error: ErrNoteNotFound, Status: http.StatusNotFound, Message: "note not found"},
	{Error: ErrInvalidZip, Status: http.StatusBadRequest, Message: "zip code must be 5 digits"},
}

// Handler handles HTTP requests for the profile module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers profile routes. Registrations stay flat so
// other features can mount their own subrouters under the same user
// prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{userID}/location", h.GetLocation)
	r.Put("/users/{userID}/location", h.SetLocation)
	r.Get("/users/{userID}/notes/{key}", h.GetNote)
	r.Put("/users/{userID}/notes/{key}", h.SetNote)
}

// SetLocationRequest represents request body for saving a home zip.
type SetLocationRequest struct {
	Zip string `json:"zip" validate:"required"`
}

// SetNoteRequest represents request body for storing a note.
type SetNoteRequest struct {
	Value string `json:"value" validate:"required,max=2000"`
}

// LocationResponse represents a saved location.
type LocationResponse struct {
	UserID    int64     `json:"user_id"`
	Zip       string    `json:"zip"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteResponse represents a stored note.
type NoteResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func locationResponse(loc *domain.SavedLocation) LocationResponse {
	return LocationResponse{
		UserID:    loc.UserID,
		Zip:       loc.Zip,
		UpdatedAt: loc.UpdatedAt,
	}
}

// GetLocation handles GET /users/{userID}/location.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	loc, err := h.service.Location(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, locationResponse(loc))
}

// SetLocation handles PUT /users/{userID}/location.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req SetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	loc, err := h.service.SetLocation(r.Context(), userID, req.Zip)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, locationResponse(loc))
}

// GetNote handles GET /users/{userID}/notes/{key}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	key := chi.URLParam(r, "key")

	value, err := h.service.Note(r.Context(), userID, key)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, NoteResponse{Key: key, Value: value})
}

// SetNote handles PUT /users/{userID}/notes/{key}.
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	key := chi.URLParam(r, "key")

	var req SetNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.service.SetNote(r.Context(), userID, key, req.Value); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, NoteResponse{Key: key, Value: req.Value})
}
