package detect

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/pkg/debug"
)

// ErrModelNotFound indicates the configured model path does not exist.
var ErrModelNotFound = errors.New("model file not found")

// rankedCategories caps the per-detection category list. Only the top
// entry drives the halt decision; the rest are informational.
const rankedCategories = 3

// Config holds YOLO detector configuration.
type Config struct {
	ModelPath      string   // Path to ONNX model
	Labels         []string // Class names; nil selects by class count
	ScoreThreshold float32  // Minimum top-class confidence
	NMSThreshold   float32
	MaxResults     int // Keep at most this many detections
	InputWidth     int // Model input width
	InputHeight    int // Model input height
}

// DefaultConfig returns production defaults for the bundled fire model.
func DefaultConfig() Config {
	return Config{
		ModelPath:      "models/fire.onnx",
		ScoreThreshold: 0.25,
		NMSThreshold:   0.45,
		MaxResults:     3,
		InputWidth:     640,
		InputHeight:    640,
	}
}

// YOLODetector runs a YOLOv8-family ONNX model through the OpenCV DNN
// module. Safe for one caller at a time; the pipeline serializes access.
type YOLODetector struct {
	net       gocv.Net
	config    Config
	labels    []string
	mu        sync.Mutex // Protects inference
	inputSize image.Point
}

// NewYOLO loads the ONNX model. A missing or unreadable model is a fatal
// startup error for the sentry, so this is the only place that touches
// the filesystem.
func NewYOLO(cfg Config) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect runs one inference pass over a BGR frame.
// capturedAt is carried into the result so consumers can judge staleness.
func (d *YOLODetector) Detect(img gocv.Mat, capturedAt time.Time) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return Result{}, fmt.Errorf("empty frame")
	}

	start := time.Now()
	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	// Preprocess: letterbox-free resize to model input, scale to [0,1],
	// BGR to RGB via swapRB.
	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dets := d.parseOutput(output, imgW, imgH)

	if len(dets) > 0 {
		debug.DetLog("detector: %d object(s) in %v\n", len(dets), time.Since(start))
	}

	return Result{
		Detections: dets,
		Timestamp:  capturedAt,
		Latency:    time.Since(start),
	}, nil
}

// parseOutput decodes the YOLOv8 output tensor.
// Shape is [1, 4+nc, N]: 4 box coordinates then nc class scores, for N
// candidate boxes laid out column-major.
func (d *YOLODetector) parseOutput(output gocv.Mat, imgW, imgH float32) []Detection {
	rows := output.Cols() // N candidate boxes
	cols := output.Rows() // 4 + class count

	data, err := output.DataPtrFloat32()
	if err != nil || cols <= 4 {
		return nil
	}

	labels := d.labelSet(cols - 4)

	var boxes []image.Rectangle
	var confidences []float32
	var ranked [][]Category

	for i := 0; i < rows; i++ {
		// Rank class scores for this box
		cats := make([]Category, 0, cols-4)
		for c := 4; c < cols; c++ {
			cats = append(cats, Category{
				Label: labelFor(labels, c-4),
				Score: float64(data[c*rows+i]),
			})
		}
		sort.SliceStable(cats, func(a, b int) bool { return cats[a].Score > cats[b].Score })

		if cats[0].Score < float64(d.config.ScoreThreshold) {
			continue
		}
		if len(cats) > rankedCategories {
			cats = cats[:rankedCategories]
		}

		// Box is (center x, center y, width, height) in model input scale
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(d.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(d.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(d.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(d.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, float32(cats[0].Score))
		ranked = append(ranked, cats)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ScoreThreshold, d.config.NMSThreshold)

	var dets []Detection
	for _, idx := range indices {
		box := boxes[idx]
		dets = append(dets, Detection{
			Box: BoundingBox{
				X:      float64(box.Min.X),
				Y:      float64(box.Min.Y),
				Width:  float64(box.Dx()),
				Height: float64(box.Dy()),
			},
			Categories: ranked[idx],
		})
	}

	sortByScore(dets)
	if d.config.MaxResults > 0 && len(dets) > d.config.MaxResults {
		dets = dets[:d.config.MaxResults]
	}
	return dets
}

// labelSet resolves the label list once, preferring the configured list,
// then picking FireLabels or COCOLabels by class count.
func (d *YOLODetector) labelSet(classCount int) []string {
	if d.labels != nil {
		return d.labels
	}
	switch {
	case d.config.Labels != nil:
		d.labels = d.config.Labels
	case classCount == len(FireLabels):
		d.labels = FireLabels
	case classCount == len(COCOLabels):
		d.labels = COCOLabels
	default:
		d.labels = []string{}
	}
	return d.labels
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
