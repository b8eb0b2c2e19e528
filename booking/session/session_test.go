package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBeginSnapshotEnd(t *testing.T) {
	m := NewManager()

	m.Begin(42, StepCollectingName, "solo1")
	if !m.InProgress(42) {
		t.Fatal("expected session in progress")
	}

	sess, ok := m.Snapshot(42)
	if !ok {
		t.Fatal("expected snapshot")
	}
	if sess.Step != StepCollectingName || sess.PlanID != "solo1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	m.End(42)
	if m.InProgress(42) {
		t.Fatal("session should be gone")
	}
	if m.Step(42) != StepIdle {
		t.Fatal("ended session must report idle")
	}
}

func TestUpdateRequiresSession(t *testing.T) {
	m := NewManager()
	err := m.Update(1, func(s *Session) { s.FullName = "x" })
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestUpdateMutatesUnderLock(t *testing.T) {
	m := NewManager()
	m.Begin(7, StepCollectingName, "duo")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Update(7, func(s *Session) {
				s.FullName = "Aigerim K."
				s.Step = StepCollectingPhone
			})
		}()
	}
	wg.Wait()

	sess, _ := m.Snapshot(7)
	if sess.FullName != "Aigerim K." || sess.Step != StepCollectingPhone {
		t.Fatalf("unexpected session after concurrent updates: %+v", sess)
	}
}

func TestBeginReplacesExisting(t *testing.T) {
	m := NewManager()
	m.Begin(9, StepCollectingName, "solo1")
	_ = m.Update(9, func(s *Session) { s.FullName = "old" })

	m.Begin(9, StepCollectingName, "solo2")
	sess, _ := m.Snapshot(9)
	if sess.FullName != "" || sess.PlanID != "solo2" {
		t.Fatalf("Begin must reset session data: %+v", sess)
	}
}

func TestSweepEvictsStale(t *testing.T) {
	m := NewManager()
	current := time.Now()
	m.now = func() time.Time { return current }

	m.Begin(1, StepCollectingPhone, "solo1")
	m.Begin(2, StepCollectingPhone, "solo1")

	current = current.Add(2 * time.Hour)
	_ = m.Update(2, func(s *Session) {}) // refresh user 2

	m.sweep(time.Hour)

	if m.InProgress(1) {
		t.Fatal("stale session must be evicted")
	}
	if !m.InProgress(2) {
		t.Fatal("fresh session must survive the sweep")
	}
}
