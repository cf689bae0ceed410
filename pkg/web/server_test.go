package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/firewatchbot/go-firewatch/pkg/detect"
)

func TestAPIStatus(t *testing.T) {
	s := NewServer("0")
	s.UpdateState(func(st *SentryState) {
		st.Angle = 42
		st.Running = true
		st.TargetLabel = "fire"
	})

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var got SentryState
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Angle != 42 || !got.Running || got.TargetLabel != "fire" {
		t.Errorf("state = %+v", got)
	}
}

func TestAPIEvents(t *testing.T) {
	s := NewServer("0")
	s.AddHaltEvent(90, detect.Detection{
		Categories: []detect.Category{{Label: "fire", Score: 0.91}},
	})

	req := httptest.NewRequest("GET", "/api/events", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var events []HaltEvent
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &events); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Angle != 90 || e.Label != "fire" || e.Score != 0.91 {
		t.Errorf("event = %+v", e)
	}
	if e.ID == "" || e.Time == "" {
		t.Error("event ID and Time must be populated")
	}
}

func TestAPIReset(t *testing.T) {
	s := NewServer("0")

	called := false
	s.OnReset = func() { called = true }

	req := httptest.NewRequest("POST", "/api/reset", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if !called {
		t.Error("reset callback not invoked")
	}
}

func TestAPIResetUnconfigured(t *testing.T) {
	s := NewServer("0")

	req := httptest.NewRequest("POST", "/api/reset", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
}

func TestEventLogBounded(t *testing.T) {
	s := NewServer("0")
	d := detect.Detection{Categories: []detect.Category{{Label: "fire", Score: 0.5}}}

	for i := 0; i < maxEvents+25; i++ {
		s.AddHaltEvent(float64(i), d)
	}

	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	if len(s.events) != maxEvents {
		t.Errorf("events = %d, want %d", len(s.events), maxEvents)
	}
	// Oldest entries evicted; the newest survives
	if got := s.events[len(s.events)-1].Angle; got != float64(maxEvents+24) {
		t.Errorf("newest event angle = %v, want %v", got, float64(maxEvents+24))
	}
}
