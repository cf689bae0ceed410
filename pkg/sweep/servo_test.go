package sweep

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPServo_SetAngle(t *testing.T) {
	var got struct {
		Angle float64 `json:"angle"`
	}
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	servo := NewHTTPServo(srv.URL)
	if err := servo.SetAngle(42.5); err != nil {
		t.Fatalf("SetAngle: %v", err)
	}

	if gotPath != "/api/servo/angle" {
		t.Errorf("path: got %q, want /api/servo/angle", gotPath)
	}
	if got.Angle != 42.5 {
		t.Errorf("angle: got %v, want 42.5", got.Angle)
	}
}

// The driver boundary clamps even when the caller misbehaves.
func TestHTTPServo_ClampsOutOfRange(t *testing.T) {
	var got struct {
		Angle float64 `json:"angle"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	servo := NewHTTPServo(srv.URL)

	servo.SetAngle(250)
	if got.Angle != MaxAngle {
		t.Errorf("over-range: got %v, want %v", got.Angle, MaxAngle)
	}

	servo.SetAngle(-10)
	if got.Angle != MinAngle {
		t.Errorf("under-range: got %v, want %v", got.Angle, MinAngle)
	}
}

func TestHTTPServo_RejectedCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	servo := NewHTTPServo(srv.URL)
	if err := servo.SetAngle(90); err == nil {
		t.Error("SetAngle: expected error for rejected command")
	}
}
