package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/pysugar/notion-nexus/internal/session"
)

// ConnectController owns at most one in-flight linking attempt. A new
// detector is created per attempt; its terminal state stays readable until
// the next start.
type ConnectController struct {
	mu          sync.Mutex
	detector    *session.Detector
	running     bool
	newDetector func() *session.Detector
}

func NewConnectController(factory func() *session.Detector) *ConnectController {
	return &ConnectController{newDetector: factory}
}

// StartHandler kicks off a linking attempt.
// POST /api/notion/connect/start
func (c *ConnectController) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		if c.running {
			state := c.detector.CurrentState()
			c.mu.Unlock()
			writeJSON(w, map[string]interface{}{"success": false, "error": "connect already in progress", "state": state.String()})
			return
		}
		detector := c.newDetector()
		c.detector = detector
		c.running = true
		c.mu.Unlock()

		go func() {
			if err := detector.Connect(context.Background()); err != nil {
				log.Printf("❌ Notion connect flow ended: %v", err)
			}
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
		}()

		writeJSON(w, map[string]interface{}{"success": true, "state": session.StateAwaitingAuthorization.String()})
	}
}

// StateHandler reports the current attempt's state machine position.
// GET /api/notion/connect/state
func (c *ConnectController) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.detector == nil {
			writeJSON(w, map[string]interface{}{"state": session.StateIdle.String(), "pollTicks": 0})
			return
		}
		writeJSON(w, map[string]interface{}{
			"state":     c.detector.CurrentState().String(),
			"pollTicks": c.detector.PollTicks(),
		})
	}
}
