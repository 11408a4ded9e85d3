// Package control exposes the element's runtime properties over HTTP: model
// path, alternatives, partial pacing, on-demand final results, and a
// server-sent event stream of recognition output.
package control

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/voskstream/voskstream/internal/filter"
	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/pkg/events"
	"github.com/voskstream/voskstream/pkg/modelstore"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// Handler provides REST endpoints for controlling a recognition element.
type Handler struct {
	element   *filter.Element
	publisher *events.Publisher
	store     *modelstore.Store // optional
}

// NewHandler creates a control API handler. The model store may be nil when
// no manifest directory is configured.
func NewHandler(element *filter.Element, publisher *events.Publisher, store *modelstore.Store) *Handler {
	return &Handler{element: element, publisher: publisher, store: store}
}

// RegisterRoutes registers all control API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/state", h.GetState)
	mux.HandleFunc("PUT /api/v1/state", h.SetState)
	mux.HandleFunc("GET /api/v1/properties", h.GetProperties)
	mux.HandleFunc("GET /api/v1/properties/speech-model", h.GetModel)
	mux.HandleFunc("PUT /api/v1/properties/speech-model", h.SetModel)
	mux.HandleFunc("GET /api/v1/properties/alternatives", h.GetAlternatives)
	mux.HandleFunc("PUT /api/v1/properties/alternatives", h.SetAlternatives)
	mux.HandleFunc("GET /api/v1/properties/partial-results", h.GetPartialResults)
	mux.HandleFunc("PUT /api/v1/properties/partial-results", h.SetPartialResults)
	mux.HandleFunc("GET /api/v1/properties/final-results", h.GetFinalResults)
	mux.HandleFunc("GET /api/v1/models", h.ListModels)
	mux.HandleFunc("GET /api/v1/events", h.StreamEvents)
}

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PropertiesResponse summarizes all element properties.
type PropertiesResponse struct {
	SpeechModel      string `json:"speech_model"`
	Alternatives     int    `json:"alternatives"`
	PartialResultsMs int64  `json:"partial_results_ms"`
	State            string `json:"state"`
	SampleRate       int    `json:"sample_rate"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// GetState handles GET /api/v1/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": h.element.State().String()})
}

// SetState handles PUT /api/v1/state
func (h *Handler) SetState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		State string `json:"state"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var target pipeline.State
	switch req.State {
	case "null":
		target = pipeline.StateNull
	case "ready":
		target = pipeline.StateReady
	case "paused":
		target = pipeline.StatePaused
	case "playing":
		target = pipeline.StatePlaying
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown state %q", req.State))
		return
	}

	res := h.element.ChangeState(target)
	if res == pipeline.StateChangeFailure {
		writeError(w, http.StatusConflict, "state change failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"result": res.String(),
		"state":  h.element.State().String(),
	})
}

// GetProperties handles GET /api/v1/properties
func (h *Handler) GetProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PropertiesResponse{
		SpeechModel:      h.element.ModelPath(),
		Alternatives:     h.element.Alternatives(),
		PartialResultsMs: h.element.PartialInterval().Milliseconds(),
		State:            h.element.State().String(),
		SampleRate:       h.element.Format().SampleRate,
	})
}

// GetModel handles GET /api/v1/properties/speech-model
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"value": h.element.ModelPath()})
}

// SetModel handles PUT /api/v1/properties/speech-model. The model can be
// given as a filesystem path, or as a manifest name when a model store is
// configured.
func (h *Handler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
		Name  string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	path := req.Value
	if req.Name != "" {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "no model store configured")
			return
		}
		entry, ok := h.store.Get(req.Name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", req.Name))
			return
		}
		path = entry.Path
	}

	h.element.SetModelPath(path)
	writeJSON(w, http.StatusOK, map[string]string{"value": h.element.ModelPath()})
}

// GetAlternatives handles GET /api/v1/properties/alternatives
func (h *Handler) GetAlternatives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"value": h.element.Alternatives()})
}

// SetAlternatives handles PUT /api/v1/properties/alternatives
func (h *Handler) SetAlternatives(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value int `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.element.SetAlternatives(req.Value)
	writeJSON(w, http.StatusOK, map[string]int{"value": h.element.Alternatives()})
}

// GetPartialResults handles GET /api/v1/properties/partial-results
func (h *Handler) GetPartialResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"value_ms": h.element.PartialInterval().Milliseconds()})
}

// SetPartialResults handles PUT /api/v1/properties/partial-results
func (h *Handler) SetPartialResults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ValueMs int64 `json:"value_ms"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.element.SetPartialInterval(time.Duration(req.ValueMs) * time.Millisecond)
	writeJSON(w, http.StatusOK, map[string]int64{"value_ms": h.element.PartialInterval().Milliseconds()})
}

// GetFinalResults handles GET /api/v1/properties/final-results. Reading the
// property forces the recognizer to flush its current utterance; the result
// is returned to the caller only, nothing is posted.
func (h *Handler) GetFinalResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"value": h.element.FinalResults()})
}

// ListModels handles GET /api/v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, []modelstore.Entry{})
		return
	}
	all := h.store.All()
	resp := make([]modelstore.Entry, 0, len(all))
	for _, m := range all {
		resp = append(resp, m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// StreamEvents handles GET /api/v1/events with server-sent events.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	subID := "sse-" + xid.New().String()
	ch := h.publisher.Subscribe(subID, 64)
	defer h.publisher.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(env)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Type, payload)
			flusher.Flush()
		}
	}
}
