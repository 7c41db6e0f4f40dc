package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/auth"
	"github.com/Billy-Davies-2/wordrush/internal/dal"
	"github.com/Billy-Davies-2/wordrush/internal/game"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/google/uuid"
)

const (
	connHeader = "X-Connection-ID"
	connCookie = "wordrush_conn"
)

// WordStats reports the most claimed words across archived rounds
type WordStats interface {
	TopWords(limit int) ([]models.WordStat, error)
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	registry  *game.Registry
	pubsub    *pubsub.PubSub
	results   dal.ResultsDAL
	stats     WordStats
	now       func() time.Time
	keepalive time.Duration
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(registry *game.Registry, ps *pubsub.PubSub, results dal.ResultsDAL, stats WordStats) *APIHandlers {
	return &APIHandlers{
		registry:  registry,
		pubsub:    ps,
		results:   results,
		stats:     stats,
		now:       time.Now,
		keepalive: 30 * time.Second,
	}
}

// connectionID identifies the caller across requests. Clients may pin it with
// the X-Connection-ID header, otherwise a cookie is issued. The id is a bearer
// handle to the seat it joined, so it is never read from the URL.
func connectionID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get(connHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(connCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     connCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(connHeader, id)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// gameError maps engine errors onto HTTP statuses
func gameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrInvalidRoom), errors.Is(err, game.ErrInvalidName), errors.Is(err, game.ErrNotJoined):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// JoinRoom adds the caller to a room, creating it on first use
func (h *APIHandlers) JoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Room string `json:"room"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode join request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = auth.GetUser(r).DisplayName()
	}

	connID := connectionID(w, r)
	sessionID, err := h.registry.Join(req.Room, connID, req.Name)
	if err != nil {
		logger.Debug("Join rejected", "error", err, "room", req.Room)
		gameError(w, err)
		return
	}
	state, err := h.registry.State(req.Room)
	if err != nil {
		gameError(w, err)
		return
	}

	logger.Info("Player joined", "room", state.RoomID, "session", sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":    sessionID,
		"connectionId": connID,
		"state":        state,
	})
}

// SubmitWord files a claim for the caller's room. The answer is the same
// whether or not the claim later wins; outcomes arrive on the event feed.
func (h *APIHandlers) SubmitWord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	at := h.now()

	var req struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.registry.Submit(connectionID(w, r), req.Word, at)
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// LeaveRoom removes the caller from its room
func (h *APIHandlers) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.registry.Leave(connectionID(w, r))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// StartRound restarts the round in a room
func (h *APIHandlers) StartRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Room string `json:"room"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.registry.StartRound(req.Room); err != nil {
		gameError(w, err)
		return
	}
	logger.Info("Round restarted", "room", req.Room)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetRoomState returns the public state of ?room=
func (h *APIHandlers) GetRoomState(w http.ResponseWriter, r *http.Request) {
	state, err := h.registry.State(r.URL.Query().Get("room"))
	if err != nil {
		gameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ListResults returns archived rounds, newest first
func (h *APIHandlers) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.ListRoundResults(r.URL.Query().Get("room"), intParam(r, "limit"))
	if err != nil {
		logger.Error("Failed to list round results", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []models.RoundResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// TopWords returns the most claimed words
func (h *APIHandlers) TopWords(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit")
	if limit <= 0 {
		limit = 20
	}
	stats, err := h.stats.TopWords(limit)
	if err != nil {
		logger.Error("Failed to load word stats", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []models.WordStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// EventsSSE provides Server-Sent Events for one room, or every room when
// ?room= is empty
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	flush := func() {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	send := func(ev pubsub.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Warn("Failed to encode event", "error", err, "type", ev.Type)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flush()
	}

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flush()
	if room != "" {
		if state, err := h.registry.State(room); err == nil {
			send(pubsub.Event{Type: pubsub.EventRoomState, Room: state.RoomID, Payload: map[string]interface{}{"state": state}})
		}
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()
	for {
		select {
		case event := <-eventChan:
			if room != "" && event.Room != room {
				continue
			}
			send(event)
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected", "room", room)
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush()
		}
	}
}
