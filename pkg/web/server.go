// Package web provides a real-time dashboard for the firewatch sentry:
// live camera feed, sweep state, and the halt-event log.
//
// The dashboard is strictly read-only with one exception: POST
// /api/reset re-arms a halted sweep through an explicit callback. It
// never touches control state directly.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/firewatchbot/go-firewatch/internal/log"
	"github.com/firewatchbot/go-firewatch/pkg/detect"
	"github.com/firewatchbot/go-firewatch/pkg/hub"
	"github.com/firewatchbot/go-firewatch/pkg/sweep"
)

// SentryState is the dashboard view of the loop.
type SentryState struct {
	Angle          float64            `json:"angle"`
	Direction      string             `json:"direction"`
	Running        bool               `json:"running"`
	FPS            float64            `json:"fps"`
	DroppedResults uint64             `json:"dropped_results"`
	DroppedFrames  uint64             `json:"dropped_frames"`
	Detections     []detect.Detection `json:"detections"`
	TargetLabel    string             `json:"target_label"`
}

// HaltEvent records one target acquisition.
type HaltEvent struct {
	ID    string  `json:"id"`
	Time  string  `json:"time"`
	Angle float64 `json:"angle"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// maxEvents bounds the in-memory halt-event log.
const maxEvents = 100

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port string

	// State
	state   SentryState
	stateMu sync.RWMutex

	// Halt events (most recent last)
	events   []HaltEvent
	eventsMu sync.RWMutex

	// Hubs for websocket broadcast (thread-safe!)
	statusHub *hub.Hub
	cameraHub *hub.Hub

	// OnReset re-arms the sweep; wired to the controller by main.
	OnReset func()
}

// NewServer creates a new dashboard server
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		events:    make([]HaltEvent, 0, maxEvents),
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Firewatch Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Post("/reset", s.handleReset)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the web server. Blocks.
func (s *Server) Start() error {
	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// UpdateState updates the sentry state and broadcasts to clients
func (s *Server) UpdateState(update func(*SentryState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddHaltEvent records a target acquisition and broadcasts it.
func (s *Server) AddHaltEvent(angle float64, trigger detect.Detection) {
	top := trigger.Top()
	event := HaltEvent{
		ID:    uuid.New().String(),
		Time:  time.Now().Format(time.RFC3339),
		Angle: angle,
		Label: top.Label,
		Score: top.Score,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > maxEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	s.statusHub.BroadcastJSON(fiber.Map{"event": event})
}

// SendCameraFrame sends an encoded JPEG frame to all connected clients
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// CameraClientCount returns how many clients watch the camera stream.
// The loop skips JPEG encoding entirely when nobody is watching.
func (s *Server) CameraClientCount() int {
	return s.cameraHub.ClientCount()
}

// SweepState publishes the controller state into the dashboard.
func (s *Server) SweepState(st sweep.State) {
	s.UpdateState(func(state *SentryState) {
		state.Angle = st.Angle
		state.Direction = st.Direction.String()
		state.Running = st.Running
	})
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
