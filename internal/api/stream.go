package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wealth-planner/internal/engine"
)

// Stream message types.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is one websocket frame of a streamed simulation.
type StreamMessage struct {
	Type   string                 `json:"type"`
	Done   int                    `json:"done,omitempty"`
	Total  int                    `json:"total,omitempty"`
	Run    *SimulationRunResponse `json:"run,omitempty"`
	Error  *ErrorDetail           `json:"error,omitempty"`
	Status int                    `json:"status,omitempty"` // HTTP-equivalent status for errors
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleSimulateStream runs a simulation over a websocket, pushing progress
// frames and then a single result or error frame. Query parameters mirror
// POST /simulate: num_simulations, seed, record_snapshot.
// Closing the socket cancels the run.
func (s *Server) handleSimulateStream(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")
	n, ok := queryInt(w, r, "num_simulations", 0)
	if !ok {
		return
	}
	seed, ok := querySeed(w, r)
	if !ok {
		return
	}
	record := r.URL.Query().Get("record_snapshot") == "true"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", zap.String("goal_id", goalID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader: any read error means the client went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// Writer: single goroutine owns writes. Progress arrives from workers
	// out of order; only increasing counts are forwarded.
	progress := make(chan StreamMessage, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		last := 0
		for msg := range progress {
			if msg.Done <= last {
				continue
			}
			last = msg.Done
			if err := s.writeFrame(conn, msg); err != nil {
				cancel()
				// Drain so senders never block.
				for range progress {
				}
				return
			}
		}
	}()

	run, err := s.svc.Simulate(ctx, engine.SimulateRequest{
		GoalID:         goalID,
		NumPaths:       n,
		Seed:           seed,
		RecordSnapshot: record,
		Progress: func(done, total int) {
			select {
			case progress <- StreamMessage{Type: MessageProgress, Done: done, Total: total}:
			default:
				// Drop; a later count supersedes it.
			}
		},
	})
	close(progress)
	<-writerDone

	var final StreamMessage
	if err != nil {
		code, detail := errorStatus(err)
		final = StreamMessage{Type: MessageError, Error: &detail, Status: code}
		if code >= http.StatusInternalServerError && ctx.Err() == nil {
			s.logger.Error("stream simulation failed", zap.String("goal_id", goalID), zap.Error(err))
		}
	} else {
		resp := toRunResponse(run)
		final = StreamMessage{Type: MessageResult, Run: &resp}
	}

	if err := s.writeFrame(conn, final); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.writeTimeout))
}

func (s *Server) writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
