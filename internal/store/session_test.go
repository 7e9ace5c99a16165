package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSession(t *testing.T, s *Store) *Session {
	t.Helper()

	sess := &Session{
		Source:        "0",
		Mode:          "video",
		MaxHands:      2,
		DetectionConf: 0.5,
		TrackingConf:  0.5,
	}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return sess
}

func TestSessionRepository_Create(t *testing.T) {
	s := setupTestStore(t)
	sess := newSession(t, s)

	if sess.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if sess.StartedAt.IsZero() {
		t.Error("Create() should set StartedAt")
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Source != "0" || got.Mode != "video" || got.MaxHands != 2 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.EndedAt != nil {
		t.Error("new session should not have an end time")
	}
}

func TestSessionRepository_InvalidMode(t *testing.T) {
	s := setupTestStore(t)

	err := s.Sessions().Create(&Session{Source: "0", Mode: "burst", MaxHands: 1})
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown mode")
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Sessions().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := setupTestStore(t)
	sess := newSession(t, s)

	if err := s.Sessions().End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt should be set after End()")
	}
	if got.EndedAt.Before(got.StartedAt.Add(-time.Second)) {
		t.Errorf("EndedAt %v before StartedAt %v", got.EndedAt, got.StartedAt)
	}

	if err := s.Sessions().End("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() on missing session error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_ListAndDelete(t *testing.T) {
	s := setupTestStore(t)
	first := newSession(t, s)
	second := newSession(t, s)

	sessions, err := s.Sessions().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(sessions))
	}

	if err := s.Sessions().Delete(first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	sessions, err = s.Sessions().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != second.ID {
		t.Errorf("List() after delete = %v", sessions)
	}

	if err := s.Sessions().Delete(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
