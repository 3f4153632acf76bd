package schedule

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
	{Error: ErrSubscriptionNotFound, Status: http.StatusNotFound, Message: "subscription not found"},
	{Error: ErrInvalidCadence, Status: http.StatusBadRequest, Message: "cadence must be daily or weekly"},
	{Error: ErrInvalidTime, Status: http.StatusBadRequest, Message: "hour must be 0-23 and minute 0-59"},
	{Error: ErrInvalidUnits, Status: http.StatusBadRequest, Message: "units must be imperial or metric"},
	{Error: ErrInvalidZip, Status: http.StatusBadRequest, Message: "zip code must be 5 digits"},
	{Error: ErrNoZip, Status: http.StatusBadRequest, Message: "provide a zip code or save a location first"},
	{Error: ErrInvalidTimezone, Status: http.StatusBadRequest, Message: "unknown timezone"},
}

// Handler handles HTTP requests for the schedule module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new schedule handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers subscription routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userID}/subscriptions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/{subID}", h.Remove)
	})
}

// CreateSubscriptionRequest represents request body for creating a
// subscription.
type CreateSubscriptionRequest struct {
	Zip         string `json:"zip"`
	Cadence     string `json:"cadence" validate:"required,oneof=daily weekly"`
	Hour        int    `json:"hour" validate:"min=0,max=23"`
	Minute      int    `json:"minute" validate:"min=0,max=59"`
	OutlookDays int    `json:"outlook_days" validate:"omitempty,min=3,max=10"`
	Timezone    string `json:"timezone"`
	Units       string `json:"units" validate:"omitempty,oneof=imperial metric"`
}

// SubscriptionResponse represents a subscription.
type SubscriptionResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Zip         string    `json:"zip"`
	Cadence     string    `json:"cadence"`
	Hour        int       `json:"hour"`
	Minute      int       `json:"minute"`
	OutlookDays int       `json:"outlook_days"`
	Timezone    string    `json:"timezone"`
	Units       string    `json:"units"`
	NextRun     time.Time `json:"next_run"`
	CreatedAt   time.Time `json:"created_at"`
}

func subscriptionResponse(sub domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          sub.ID,
		UserID:      sub.UserID,
		Zip:         sub.Zip,
		Cadence:     string(sub.Cadence),
		Hour:        sub.Hour,
		Minute:      sub.Minute,
		OutlookDays: sub.OutlookDays,
		Timezone:    sub.Timezone,
		Units:       string(sub.Units),
		NextRun:     sub.NextRun,
		CreatedAt:   sub.CreatedAt,
	}
}

// Create handles POST /users/{userID}/subscriptions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sub, err := h.service.Create(r.Context(), userID, CreateInput{
		Zip:         req.Zip,
		Cadence:     domain.Cadence(req.Cadence),
		Hour:        req.Hour,
		Minute:      req.Minute,
		OutlookDays: req.OutlookDays,
		Timezone:    req.Timezone,
		Units:       domain.Units(req.Units),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, subscriptionResponse(*sub))
}

// List handles GET /users/{userID}/subscriptions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	subs, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	out := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriptionResponse(sub))
	}
	httputil.Success(w, http.StatusOK, out)
}

// Remove handles DELETE /users/{userID}/subscriptions/{subID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.URLParamInt64(r, "userID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	subID, err := httputil.URLParamInt64(r, "subID")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	if err := h.service.Remove(r.Context(), userID, subID); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
