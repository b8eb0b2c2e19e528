package logger

import (
	"testing"
)

func TestBuildRID(t *testing.T) {
	if got := BuildRID(42, 7, 9); got != "42:7:9" {
		t.Fatalf("BuildRID = %s, expected 42:7:9", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "hello\x00world\x1b[0m"
	got := SanitizeLimit(in, 8)
	if got != "hellowor" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if SanitizeLimit("anything", 0) != "" {
		t.Fatal("limit 0 should yield empty string")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 5, 11, 22)
	ctx = WithHandler(ctx, "pay")

	if RIDFrom(ctx) != "rid-123" {
		t.Fatalf("rid = %s", RIDFrom(ctx))
	}
	if UpdateIDFrom(ctx) != 5 || UserIDFrom(ctx) != 11 || ChatIDFrom(ctx) != 22 {
		t.Fatalf("update meta mismatch: %d %d %d", UpdateIDFrom(ctx), UserIDFrom(ctx), ChatIDFrom(ctx))
	}
	if HandlerFrom(ctx) != "pay" {
		t.Fatalf("handler = %s", HandlerFrom(ctx))
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 4)
	allowed := 0
	for i := 0; i < 8; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed = %d, expected 2 of 8", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}
