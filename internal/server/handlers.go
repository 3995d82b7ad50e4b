// File: internal/server/handlers.go
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/service"
)

// maxBodyBytes bounds request bodies. Analyze and scan requests carry raw
// log text, so this is generous.
const maxBodyBytes = 32 << 20

var jsonAPI = json.ConfigCompatibleWithStandardLibrary

// Handlers maps HTTP requests onto facade operations.
type Handlers struct {
	log     *zap.Logger
	facade  Facade
	timeout time.Duration
}

// NewHandlers creates the handlers. timeout bounds every /api/v1 request.
func NewHandlers(facade Facade, timeout time.Duration, logger *zap.Logger) *Handlers {
	return &Handlers{
		log:     logger.Named("handlers"),
		facade:  facade,
		timeout: timeout,
	}
}

// RegisterRoutes sets up the health check and the versioned API.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))

		r.Get("/files", h.HandleListFiles)
		r.Get("/errors", h.HandleRecentErrors)
		r.Post("/watch", h.HandleWatch)
		r.Post("/stop", h.HandleStop)
		r.Post("/stop-all", h.HandleStopAll)
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/scan", h.HandleScan)
		r.Post("/rapid-debug", h.HandleRapidDebug)
	})
}

// HandleHealthCheck is a simple handler to confirm the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) HandleWatch(w http.ResponseWriter, r *http.Request) {
	var req service.WatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.facade.Watch(req))
}

func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req service.StopWatchingRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.facade.StopWatching(req))
}

func (h *Handlers) HandleStopAll(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.facade.StopAll())
}

func (h *Handlers) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.facade.ListWatchedFiles())
}

// HandleRecentErrors reads the optional path and limit query parameters.
func (h *Handlers) HandleRecentErrors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.RecentErrorsRequest{Path: q.Get("path")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respond(w, invalidRequest(fmt.Sprintf("limit must be an integer, got %q", raw)))
			return
		}
		req.Limit = n
	}
	h.respond(w, h.facade.GetRecentErrors(req))
}

func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req service.AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.facade.AnalyzeLog(r.Context(), req))
}

func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req service.QuickScanRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.facade.QuickScan(req))
}

func (h *Handlers) HandleRapidDebug(w http.ResponseWriter, r *http.Request) {
	var req service.RapidDebugRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.facade.RapidDebug(r.Context(), req))
}

// decode reads the JSON body into dst. On failure it writes the error
// response and returns false.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := jsonAPI.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.respond(w, invalidRequest(fmt.Sprintf("invalid request body: %v", err)))
		return false
	}
	return true
}

func invalidRequest(msg string) schemas.Result {
	return schemas.Result{Success: false, Error: msg, Code: schemas.CodeInvalidRequest}
}

// statusFor maps a result envelope onto an HTTP status code.
func statusFor(res schemas.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Code {
	case schemas.CodeInvalidRequest:
		return http.StatusBadRequest
	case schemas.CodeNotWatched:
		return http.StatusNotFound
	case schemas.CodePathUnreadable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respond writes res as the JSON body.
func (h *Handlers) respond(w http.ResponseWriter, res schemas.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(res))
	if err := jsonAPI.NewEncoder(w).Encode(res); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
