package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreCreateAndReadBack(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &Registration{
		FullName:    "Aigerim K.",
		PhoneNumber: "+7 707 123 45 67",
		TelegramID:  "42",
		PlanID:      "solo1",
		PlanName:    "Solo Базовый",
	}
	if err := s.CreateRegistration(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	// The create ack does not carry an id back to the caller.
	if first.ID != "" {
		t.Fatalf("caller's struct must stay id-less, got %q", first.ID)
	}

	second := &Registration{FullName: "Aigerim K.", TelegramID: "42", PlanID: "solo2", PlanName: "Premium Solo"}
	if err := s.CreateRegistration(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	latest, err := s.LatestByTelegramID(ctx, "42")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.PlanID != "solo2" {
		t.Fatalf("latest should be the second registration, got plan %q", latest.PlanID)
	}
	if latest.ID == "" {
		t.Fatal("read-back row must carry an id")
	}

	if _, err := s.LatestByTelegramID(ctx, "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreMarkPaid(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	reg := &Registration{TelegramID: "7", PlanID: "duo", PlanName: "Два поколения"}
	if err := s.CreateRegistration(ctx, reg); err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, err := s.LatestByTelegramID(ctx, "7")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	if err := s.MarkPaid(ctx, stored.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, err := s.ByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if !got.IsPaid {
		t.Fatal("registration should be paid")
	}

	// Idempotent on repeat.
	if err := s.MarkPaid(ctx, stored.ID); err != nil {
		t.Fatalf("second mark paid: %v", err)
	}

	// Unknown id fails and mutates nothing.
	if err := s.MarkPaid(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListAllNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, plan := range []string{"solo1", "solo2", "duo"} {
		if err := s.CreateRegistration(ctx, &Registration{TelegramID: "1", PlanID: plan}); err != nil {
			t.Fatalf("create %s: %v", plan, err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d rows, want 3", len(all))
	}
	if all[0].PlanID != "duo" || all[2].PlanID != "solo1" {
		t.Fatalf("wrong order: %v, %v, %v", all[0].PlanID, all[1].PlanID, all[2].PlanID)
	}
}
