package store

import (
	"database/sql"
	"time"
)

// Landmark is a recorded pixel landmark.
type Landmark struct {
	ID int
	X  int
	Y  int
}

// JointAngle is a recorded joint angle in degrees.
type JointAngle struct {
	Joint   string
	Degrees float64
}

// Hand is one detected hand of a recorded frame.
type Hand struct {
	Index      int
	Handedness string
	Score      float64
	Landmarks  []Landmark
	Angles     []JointAngle
}

// Frame is a processed frame of a session.
type Frame struct {
	ID         int64
	SessionID  string
	Seq        int64
	Width      int
	Height     int
	CapturedAt time.Time
	Hands      []Hand
}

// FrameRepository records and reads back session frames.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Record inserts f with its hands, landmarks and joint angles in a single
// transaction and bumps the session's frame count. f.ID is set on success.
func (r *FrameRepository) Record(f *Frame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO frames (session_id, seq, width, height, captured_at) VALUES (?, ?, ?, ?, ?)`,
		f.SessionID, f.Seq, f.Width, f.Height, f.CapturedAt,
	)
	if err != nil {
		return err
	}
	frameID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	lmStmt, err := tx.Prepare(`INSERT INTO landmarks (hand_id, landmark_id, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer lmStmt.Close()

	angleStmt, err := tx.Prepare(`INSERT INTO joint_angles (hand_id, joint, degrees) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer angleStmt.Close()

	for _, h := range f.Hands {
		result, err := tx.Exec(
			`INSERT INTO hands (frame_id, hand_index, handedness, score) VALUES (?, ?, ?, ?)`,
			frameID, h.Index, h.Handedness, h.Score,
		)
		if err != nil {
			return err
		}
		handID, err := result.LastInsertId()
		if err != nil {
			return err
		}

		for _, lm := range h.Landmarks {
			if _, err := lmStmt.Exec(handID, lm.ID, lm.X, lm.Y); err != nil {
				return err
			}
		}
		for _, a := range h.Angles {
			if _, err := angleStmt.Exec(handID, a.Joint, a.Degrees); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`UPDATE sessions SET frames = frames + 1 WHERE id = ?`, f.SessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	f.ID = frameID
	return nil
}

// ListBySession returns up to limit frames of a session in capture order,
// with their hands. A limit <= 0 returns every frame.
func (r *FrameRepository) ListBySession(sessionID string, limit int) ([]*Frame, error) {
	query := `SELECT id, session_id, seq, width, height, captured_at
		 FROM frames WHERE session_id = ? ORDER BY seq`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []*Frame
	for rows.Next() {
		f := &Frame{}
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Seq, &f.Width, &f.Height, &f.CapturedAt); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows.Close()

	for _, f := range frames {
		hands, err := r.hands(f.ID)
		if err != nil {
			return nil, err
		}
		f.Hands = hands
	}

	return frames, nil
}

func (r *FrameRepository) hands(frameID int64) ([]Hand, error) {
	rows, err := r.db.Query(
		`SELECT id, hand_index, handedness, score FROM hands WHERE frame_id = ? ORDER BY hand_index`,
		frameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	var hands []Hand
	for rows.Next() {
		var id int64
		var h Hand
		if err := rows.Scan(&id, &h.Index, &h.Handedness, &h.Score); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		hands = append(hands, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		lms, err := r.landmarks(id)
		if err != nil {
			return nil, err
		}
		angles, err := r.angles(id)
		if err != nil {
			return nil, err
		}
		hands[i].Landmarks = lms
		hands[i].Angles = angles
	}

	return hands, nil
}

func (r *FrameRepository) landmarks(handID int64) ([]Landmark, error) {
	rows, err := r.db.Query(`SELECT landmark_id, x, y FROM landmarks WHERE hand_id = ? ORDER BY landmark_id`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lms []Landmark
	for rows.Next() {
		var lm Landmark
		if err := rows.Scan(&lm.ID, &lm.X, &lm.Y); err != nil {
			return nil, err
		}
		lms = append(lms, lm)
	}
	return lms, rows.Err()
}

func (r *FrameRepository) angles(handID int64) ([]JointAngle, error) {
	rows, err := r.db.Query(`SELECT joint, degrees FROM joint_angles WHERE hand_id = ? ORDER BY rowid`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var angles []JointAngle
	for rows.Next() {
		var a JointAngle
		if err := rows.Scan(&a.Joint, &a.Degrees); err != nil {
			return nil, err
		}
		angles = append(angles, a)
	}
	return angles, rows.Err()
}
