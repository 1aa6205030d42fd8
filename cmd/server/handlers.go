package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"signal-copier-go/internal/engine"
	"signal-copier-go/internal/models"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	engine *engine.Engine
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, eng *engine.Engine) *APIHandler {
	return &APIHandler{log: log, engine: eng}
}

// Register wires the operator and cBot endpoints. The paths and response
// envelopes match what existing cBot clients expect.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /get_state", h.GetStateHandler)
	mux.HandleFunc("GET /channels", h.ChannelsHandler)
	mux.HandleFunc("GET /get_signal/{magic}", h.GetSignalHandler)
	mux.HandleFunc("POST /add_channel", h.AddChannelHandler)
	mux.HandleFunc("POST /remove_channel", h.RemoveChannelHandler)
	mux.HandleFunc("POST /update_channel_settings", h.UpdateChannelHandler)
	mux.HandleFunc("POST /report_trade_close", h.ReportTradeCloseHandler)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *APIHandler) writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, statusResponse{Status: "error", Message: message})
}

func (h *APIHandler) writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

// GetStateHandler returns the full state document.
func (h *APIHandler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.FullState())
}

// ChannelsHandler returns every channel profile keyed by channel id.
func (h *APIHandler) ChannelsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.ListChannels())
}

// GetSignalHandler delivers the next queued signal for a magic number, or
// the no_new_signal sentinel.
func (h *APIHandler) GetSignalHandler(w http.ResponseWriter, r *http.Request) {
	magic, err := strconv.ParseInt(r.PathValue("magic"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid magic number")
		return
	}

	signal, err := h.engine.PollSignal(magic)
	if err != nil {
		h.log.Error("Failed to poll signal", zap.Int64("magic", magic), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to poll signal")
		return
	}
	if signal == nil {
		writeJSON(w, http.StatusOK, statusResponse{Status: "no_new_signal"})
		return
	}
	writeJSON(w, http.StatusOK, signal)
}

// channelID extracts the channel_id key from a decoded JSON body,
// tolerating both string and numeric encodings.
func channelID(body map[string]any) string {
	switch v := body["channel_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return body, nil
}

// AddChannelHandler registers a channel with default settings.
func (h *APIHandler) AddChannelHandler(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := channelID(body)
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "channel_id is required")
		return
	}
	if _, err := h.engine.CreateChannel(id); err != nil {
		h.handleEngineError(w, err)
		return
	}
	h.writeSuccess(w)
}

// RemoveChannelHandler deletes a channel and any orphaned account record.
func (h *APIHandler) RemoveChannelHandler(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.RemoveChannel(channelID(body)); err != nil {
		h.handleEngineError(w, err)
		return
	}
	h.writeSuccess(w)
}

// UpdateChannelHandler applies a partial settings update. The whole body
// is handed to the engine; it applies only the fields its schema knows.
func (h *APIHandler) UpdateChannelHandler(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.UpdateChannel(channelID(body), body); err != nil {
		h.handleEngineError(w, err)
		return
	}
	h.writeSuccess(w)
}

// ReportTradeCloseHandler folds a cBot's trade-close report into the
// channel ledger.
func (h *APIHandler) ReportTradeCloseHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChannelID any `json:"channel_id"`
		models.CloseReport
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := ""
	switch v := payload.ChannelID.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	}

	if err := h.engine.ReportTradeClose(id, payload.CloseReport); err != nil {
		h.handleEngineError(w, err)
		return
	}
	h.writeSuccess(w)
}

func (h *APIHandler) handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrChannelNotFound):
		h.writeError(w, http.StatusBadRequest, "Channel not found")
	case errors.Is(err, engine.ErrChannelExists):
		h.writeError(w, http.StatusBadRequest, "Channel already exists")
	default:
		h.log.Error("Operation failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
