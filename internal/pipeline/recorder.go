package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/ayusman/handtrack/internal/store"
)

// Recorder persists snapshots as frames of a store session.
type Recorder struct {
	store     *store.Store
	sessionID string
	logger    *log.Logger
	errors    int
}

// NewRecorder returns a recorder writing to session sessionID of st.
func NewRecorder(st *store.Store, sessionID string, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: st, sessionID: sessionID, logger: logger}
}

// Record stores snap. Failures are logged and counted; recording never stops
// the pipeline. It has the signature of a Pipeline subscriber.
func (r *Recorder) Record(snap Snapshot) {
	f := ToFrame(r.sessionID, snap)
	if err := r.store.Frames().Record(f); err != nil {
		r.errors++
		r.logger.Error("recording frame", "seq", snap.Seq, "err", err)
	}
}

// Errors returns how many snapshots failed to record.
func (r *Recorder) Errors() int {
	return r.errors
}

// ToFrame converts a snapshot to its stored form.
func ToFrame(sessionID string, snap Snapshot) *store.Frame {
	f := &store.Frame{
		SessionID:  sessionID,
		Seq:        snap.Seq,
		Width:      snap.Width,
		Height:     snap.Height,
		CapturedAt: snap.Timestamp,
	}

	for _, h := range snap.Hands {
		hand := store.Hand{
			Index:      h.Index,
			Handedness: h.Handedness,
			Score:      h.Score,
		}
		for _, lm := range h.Landmarks {
			hand.Landmarks = append(hand.Landmarks, store.Landmark{ID: lm.ID, X: lm.X, Y: lm.Y})
		}
		for _, a := range h.Angles {
			hand.Angles = append(hand.Angles, store.JointAngle{Joint: a.Joint, Degrees: a.Degrees})
		}
		f.Hands = append(f.Hands, hand)
	}

	return f
}
