// Detect-image runs the detector on a single still image and prints
// every detection with its center coordinates and zone verdict. With
// -out it also writes the annotated frame. Good for validating a model
// file before mounting it on the turret.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/internal/log"
	"github.com/firewatchbot/go-firewatch/pkg/detect"
	"github.com/firewatchbot/go-firewatch/pkg/overlay"
	"github.com/firewatchbot/go-firewatch/pkg/sweep"
	"github.com/firewatchbot/go-firewatch/pkg/target"
)

func main() {
	modelPath := flag.String("model", "models/fire.onnx", "Path to ONNX detection model")
	imagePath := flag.String("image", "", "Image file to scan")
	outPath := flag.String("out", "", "Write annotated image here (optional)")
	threshold := flag.Float64("threshold", 0.25, "Minimum detection confidence")
	label := flag.String("target", "fire", "Target class label (empty matches any class)")
	flag.Parse()

	log.Init("info", "")

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: detect-image -image <file> [-model <file>] [-out <file>]")
		os.Exit(2)
	}

	backend, err := detect.NewYOLO(detect.Config{
		ModelPath:      *modelPath,
		ScoreThreshold: float32(*threshold),
		NMSThreshold:   0.45,
		MaxResults:     10,
		InputWidth:     640,
		InputHeight:    640,
	})
	if err != nil {
		log.Error("detector initialization failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	img := gocv.IMRead(*imagePath, gocv.IMReadColor)
	if img.Empty() {
		log.Error("could not read image", "path", *imagePath)
		os.Exit(1)
	}
	defer img.Close()

	res, err := backend.Detect(img, time.Now())
	if err != nil {
		log.Error("inference failed", "error", err)
		os.Exit(1)
	}

	zone := target.DefaultZone()
	eval := target.NewEvaluator(zone, *label)
	assess := eval.Evaluate(res, img.Cols(), img.Rows())

	fmt.Printf("%d detection(s) in %v\n", len(res.Detections), res.Latency)
	for i, d := range res.Detections {
		top := d.Top()
		cx, cy := d.Box.Centroid(img.Cols(), img.Rows())
		verdict := ""
		if i < len(assess.Centered) && assess.Centered[i] {
			verdict = "  [centered]"
		}
		fmt.Printf("  %-12s %5.1f%%  box=(%.0f,%.0f %.0fx%.0f)  center=(%.2f,%.2f)%s\n",
			top.Label, top.Score*100, d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height, cx, cy, verdict)
	}
	if assess.Halt {
		fmt.Println("verdict: HALT (target centered)")
	} else {
		fmt.Println("verdict: continue sweeping")
	}

	if *outPath != "" {
		rend := overlay.NewRenderer(zone)
		rend.Draw(&img, overlay.Frame{
			Result:     res,
			Assessment: assess,
			Sweep:      sweep.State{Running: !assess.Halt, Direction: sweep.Forward},
		})
		if ok := gocv.IMWrite(*outPath, img); !ok {
			log.Error("could not write annotated image", "path", *outPath)
			os.Exit(1)
		}
		log.Info("annotated image written", "path", *outPath)
	}
}
