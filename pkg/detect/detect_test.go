package detect

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestBoundingBox_Centroid(t *testing.T) {
	tests := []struct {
		name     string
		box      BoundingBox
		frameW   int
		frameH   int
		expectCX float64
		expectCY float64
	}{
		{
			name:     "dead center of 640x480",
			box:      BoundingBox{X: 280, Y: 200, Width: 80, Height: 80},
			frameW:   640,
			frameH:   480,
			expectCX: 0.5,
			expectCY: 0.5,
		},
		{
			name:     "top left corner",
			box:      BoundingBox{X: 0, Y: 0, Width: 10, Height: 10},
			frameW:   640,
			frameH:   480,
			expectCX: 5.0 / 640,
			expectCY: 5.0 / 480,
		},
		{
			name:     "bottom right corner",
			box:      BoundingBox{X: 630, Y: 470, Width: 10, Height: 10},
			frameW:   640,
			frameH:   480,
			expectCX: 635.0 / 640,
			expectCY: 475.0 / 480,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cx, cy := tc.box.Centroid(tc.frameW, tc.frameH)
			if !floatEquals(cx, tc.expectCX) {
				t.Errorf("cx: got %v, want %v", cx, tc.expectCX)
			}
			if !floatEquals(cy, tc.expectCY) {
				t.Errorf("cy: got %v, want %v", cy, tc.expectCY)
			}
		})
	}
}

func TestBoundingBox_Centroid_DegenerateFrame(t *testing.T) {
	box := BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}
	cx, cy := box.Centroid(0, 0)
	if cx != 0 || cy != 0 {
		t.Errorf("degenerate frame: got (%v,%v), want (0,0)", cx, cy)
	}
}

func TestDetection_Top(t *testing.T) {
	d := Detection{Categories: []Category{
		{Label: "fire", Score: 0.9},
		{Label: "smoke", Score: 0.2},
	}}
	if top := d.Top(); top.Label != "fire" || top.Score != 0.9 {
		t.Errorf("Top: got %+v", top)
	}

	empty := Detection{}
	if top := empty.Top(); top.Label != "" || top.Score != 0 {
		t.Errorf("Top of empty: got %+v, want zero Category", top)
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expectNil  bool
		expectIdx  int
	}{
		{
			name:       "empty list",
			detections: nil,
			expectNil:  true,
		},
		{
			name: "single detection",
			detections: []Detection{
				{Box: BoundingBox{Width: 50, Height: 50}, Categories: []Category{{Label: "fire", Score: 0.8}}},
			},
			expectIdx: 0,
		},
		{
			name: "high confidence beats larger area",
			detections: []Detection{
				{Box: BoundingBox{Width: 200, Height: 200}, Categories: []Category{{Label: "smoke", Score: 0.5}}},
				{Box: BoundingBox{Width: 100, Height: 100}, Categories: []Category{{Label: "fire", Score: 0.95}}},
			},
			expectIdx: 1,
		},
		{
			name: "same confidence picks larger",
			detections: []Detection{
				{Box: BoundingBox{Width: 200, Height: 200}, Categories: []Category{{Label: "fire", Score: 0.8}}},
				{Box: BoundingBox{Width: 40, Height: 40}, Categories: []Category{{Label: "fire", Score: 0.8}}},
			},
			expectIdx: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			best := SelectBest(tc.detections)
			if tc.expectNil {
				if best != nil {
					t.Errorf("expected nil, got %+v", best)
				}
				return
			}
			if best == nil {
				t.Fatal("expected non-nil")
			}
			want := &tc.detections[tc.expectIdx]
			if best != want {
				t.Errorf("got %+v, want %+v", best, want)
			}
		})
	}
}
