package sweep

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firewatchbot/go-firewatch/internal/httpc"
	"github.com/firewatchbot/go-firewatch/internal/log"
)

// Servo sets the physical turret angle. Implementations clamp to
// [MinAngle, MaxAngle] at the driver boundary as well: a buggy caller
// must never reach the hardware with an impossible command.
type Servo interface {
	SetAngle(degrees float64) error
}

// HTTPServo drives a servo bridge over its HTTP API (e.g. an ESP32
// firmware exposing POST /api/servo/angle).
type HTTPServo struct {
	BaseURL string
}

// NewHTTPServo creates an HTTP-based servo driver.
func NewHTTPServo(baseURL string) *HTTPServo {
	return &HTTPServo{BaseURL: strings.TrimRight(baseURL, "/")}
}

// SetAngle posts the target angle to the bridge.
func (s *HTTPServo) SetAngle(degrees float64) error {
	payload, err := json.Marshal(map[string]float64{
		"angle": clamp(degrees, MinAngle, MaxAngle),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal angle payload: %w", err)
	}

	resp, err := httpc.Client.Post(
		s.BaseURL+"/api/servo/angle",
		"application/json",
		strings.NewReader(string(payload)),
	)
	if err != nil {
		return fmt.Errorf("servo request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("servo rejected angle: status %d", resp.StatusCode)
	}
	return nil
}

// NopServo is a dry-run driver for running the loop without hardware.
// It logs each write at debug level.
type NopServo struct{}

// SetAngle logs and discards the command.
func (NopServo) SetAngle(degrees float64) error {
	log.Debug("servo write (dry-run)", "angle", clamp(degrees, MinAngle, MaxAngle))
	return nil
}
