// Package api provides the HTTP handlers over recorded tracking sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/handtrack/internal/store"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/frames.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "frames":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frames(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Response types

type sessionResponse struct {
	ID            string  `json:"id"`
	Source        string  `json:"source"`
	Mode          string  `json:"mode"`
	MaxHands      int     `json:"max_hands"`
	DetectionConf float64 `json:"detection_confidence"`
	TrackingConf  float64 `json:"tracking_confidence"`
	Frames        int     `json:"frames"`
	StartedAt     string  `json:"started_at"`
	EndedAt       string  `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type landmarkResponse struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

type angleResponse struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
}

type handResponse struct {
	Index      int                `json:"index"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
	Landmarks  []landmarkResponse `json:"landmarks"`
	Angles     []angleResponse    `json:"angles"`
}

type frameResponse struct {
	Seq        int64          `json:"seq"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	CapturedAt string         `json:"captured_at"`
	Hands      []handResponse `json:"hands"`
}

type listFramesResponse struct {
	SessionID string          `json:"session_id"`
	Frames    []frameResponse `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		Source:        s.Source,
		Mode:          s.Mode,
		MaxHands:      s.MaxHands,
		DetectionConf: s.DetectionConf,
		TrackingConf:  s.TrackingConf,
		Frames:        s.Frames,
		StartedAt:     s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

func toFrameResponse(f *store.Frame) frameResponse {
	resp := frameResponse{
		Seq:        f.Seq,
		Width:      f.Width,
		Height:     f.Height,
		CapturedAt: f.CapturedAt.Format(time.RFC3339Nano),
		Hands:      make([]handResponse, 0, len(f.Hands)),
	}
	for _, h := range f.Hands {
		hand := handResponse{
			Index:      h.Index,
			Handedness: h.Handedness,
			Score:      h.Score,
			Landmarks:  make([]landmarkResponse, 0, len(h.Landmarks)),
			Angles:     make([]angleResponse, 0, len(h.Angles)),
		}
		for _, lm := range h.Landmarks {
			hand.Landmarks = append(hand.Landmarks, landmarkResponse{ID: lm.ID, X: lm.X, Y: lm.Y})
		}
		for _, a := range h.Angles {
			hand.Angles = append(hand.Angles, angleResponse{Joint: a.Joint, Degrees: a.Degrees})
		}
		resp.Hands = append(resp.Hands, hand)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// frames handles GET /api/sessions/{id}/frames?limit=N.
func (h *SessionHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	frames, err := h.store.Frames().ListBySession(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	response := listFramesResponse{
		SessionID: id,
		Frames:    make([]frameResponse, 0, len(frames)),
	}
	for _, f := range frames {
		response.Frames = append(response.Frames, toFrameResponse(f))
	}

	writeJSON(w, http.StatusOK, response)
}
