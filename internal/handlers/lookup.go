package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/app"
	"github.com/shrimpsizemoose/haksa/internal/matcher"
	"github.com/shrimpsizemoose/haksa/internal/metrics"
	"github.com/shrimpsizemoose/haksa/internal/models"
	"github.com/shrimpsizemoose/haksa/internal/normalize"
	"github.com/shrimpsizemoose/haksa/internal/view"
)

type attemptLimiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

type LookupHandler struct {
	service *app.Service
	limiter attemptLimiter
}

func NewLookupHandler(service *app.Service) *LookupHandler {
	limiter := service.Limiter
	if limiter == nil {
		// zero Limiter is disabled
		limiter = &app.Limiter{}
	}
	return &LookupHandler{
		service: service,
		limiter: limiter,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records request duration labelled with the final status code.
func Instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				r.URL.Path,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()
		next(rec, r)
	}
}

func (h *LookupHandler) cookieID(r *http.Request) string {
	if cookie, err := r.Cookie(h.service.Config.Session.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// session returns the caller's controller, starting a new session when the
// cookie is missing or stale. Only lookups start sessions.
func (h *LookupHandler) session(w http.ResponseWriter, r *http.Request) *view.Controller {
	id := h.cookieID(r)

	newID, controller := h.service.Sessions.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     h.service.Config.Session.CookieName,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	metrics.ActiveSessions.Set(float64(h.service.Sessions.Len()))
	return controller
}

// existingSession never allocates: callers without a live session get nil.
func (h *LookupHandler) existingSession(r *http.Request) *view.Controller {
	controller, ok := h.service.Sessions.Lookup(h.cookieID(r))
	if !ok {
		return nil
	}
	return controller
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var form models.LookupForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	variant := string(h.service.Matcher.Variant())

	allowed, err := h.limiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		logger.Error.Printf("Rate limiter failed: %v", err)
		http.Error(w, "Failed to check lookup limits", http.StatusInternalServerError)
		return
	}
	if !allowed {
		metrics.RateLimitedTotal.Inc()
		writeJSON(w, http.StatusTooManyRequests, view.Snapshot{
			State:  view.StateIdle,
			Status: view.Status{Message: view.MsgRateLimited, Type: view.StatusError},
		})
		return
	}

	controller := h.session(w, r)
	snap, outcome := controller.Submit(r.Context(), form)

	metrics.LookupsTotal.WithLabelValues(variant, string(outcome)).Inc()
	logger.Debug.Printf("Lookup finished: variant=%s outcome=%s", variant, outcome)

	writeJSON(w, http.StatusOK, snap)
}

func (h *LookupHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	controller := h.existingSession(r)
	if controller == nil {
		writeJSON(w, http.StatusOK, view.Idle())
		return
	}
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

func (h *LookupHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	controller := h.existingSession(r)
	if controller == nil {
		writeJSON(w, http.StatusOK, view.Cleared())
		return
	}
	writeJSON(w, http.StatusOK, controller.Reset())
}

func (h *LookupHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	// informational only, no session state is read or written
	writeJSON(w, http.StatusOK, view.ResetRequest())
}

// HandleNormalize cleans a single field while the user types.
func (h *LookupHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	field := query.Get("field")
	strict := h.service.Matcher.Variant() == matcher.VariantDemo

	value, ok := normalize.Field(field, query.Get("value"), strict)
	if !ok {
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"field": field,
		"value": value,
	})
}
