package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per tracking run with the detector settings it used
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('video', 'static')),
			max_hands INTEGER NOT NULL,
			detection_conf REAL NOT NULL,
			tracking_conf REAL NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,

		// Frames table - processed frames of a session
		`CREATE TABLE IF NOT EXISTS frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			captured_at DATETIME NOT NULL
		)`,

		// Hands table - detected hands of a frame
		`CREATE TABLE IF NOT EXISTS hands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			frame_id INTEGER NOT NULL REFERENCES frames(id) ON DELETE CASCADE,
			hand_index INTEGER NOT NULL,
			handedness TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0
		)`,

		// Landmarks table - pixel landmarks of a hand
		`CREATE TABLE IF NOT EXISTS landmarks (
			hand_id INTEGER NOT NULL REFERENCES hands(id) ON DELETE CASCADE,
			landmark_id INTEGER NOT NULL CHECK(landmark_id BETWEEN 0 AND 20),
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			PRIMARY KEY (hand_id, landmark_id)
		)`,

		// Joint angles table - measured finger joint angles of a hand
		`CREATE TABLE IF NOT EXISTS joint_angles (
			hand_id INTEGER NOT NULL REFERENCES hands(id) ON DELETE CASCADE,
			joint TEXT NOT NULL,
			degrees REAL NOT NULL CHECK(degrees BETWEEN 0 AND 180),
			PRIMARY KEY (hand_id, joint)
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_frames_session_id ON frames(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_hands_frame_id ON hands(frame_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
