package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/convonet/assistant/pkg/agent/runloop"
)

const (
	wsMaxMessageBytes = 64 << 10
	wsWriteTimeout    = 5 * time.Second
)

// Transcriber turns caller audio into a prompt. Implementations are
// supplied by deployments that run a speech pipeline; without one the
// session is text only.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders a spoken response for the caller.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type wsClientFrame struct {
	Type     string `json:"type"`
	Prompt   string `json:"prompt,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Reset    bool   `json:"reset,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type wsServerFrame struct {
	Type     string              `json:"type"`
	Kind     runloop.OutcomeKind `json:"kind,omitempty"`
	Response string              `json:"response,omitempty"`
	Transfer *runloop.Transfer   `json:"transfer,omitempty"`
	Error    string              `json:"error,omitempty"`

	// True when a synthesized audio frame follows as the next binary
	// message.
	AudioFollows bool `json:"audio_follows,omitempty"`
}

// WSHandler serves the interactive session path. The first frame must be
// a hello naming the user; each later prompt frame runs one turn under
// Deadline. Binary frames are caller audio and require a Transcriber.
type WSHandler struct {
	Runner      Runner
	Monitor     *runloop.Monitor
	Deadline    time.Duration
	Logger      *slog.Logger
	Transcriber Transcriber
	Synthesizer Synthesizer
}

func (h WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageBytes)

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	messageType, frame, err := conn.ReadMessage()
	if err != nil {
		return
	}
	if messageType != websocket.TextMessage {
		h.writeClose(conn, "first frame must be a hello")
		return
	}
	var hello wsClientFrame
	if err := json.Unmarshal(frame, &hello); err != nil || hello.Type != "hello" || strings.TrimSpace(hello.UserID) == "" {
		h.writeClose(conn, "hello frame must carry a user_id")
		return
	}
	userID := hello.UserID
	_ = conn.SetReadDeadline(time.Time{})

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req wsClientFrame
		switch messageType {
		case websocket.TextMessage:
			if err := json.Unmarshal(frame, &req); err != nil {
				h.writeFrame(conn, wsServerFrame{Type: "error", Error: "invalid frame"})
				continue
			}
			if req.Type != "prompt" || strings.TrimSpace(req.Prompt) == "" {
				h.writeFrame(conn, wsServerFrame{Type: "error", Error: "expected a prompt frame"})
				continue
			}

		case websocket.BinaryMessage:
			if h.Transcriber == nil {
				h.writeFrame(conn, wsServerFrame{Type: "error", Error: "audio is not supported on this session"})
				continue
			}
			prompt, err := h.Transcriber.Transcribe(r.Context(), frame)
			if err != nil || strings.TrimSpace(prompt) == "" {
				h.writeFrame(conn, wsServerFrame{Type: "error", Error: "could not transcribe audio"})
				continue
			}
			req = wsClientFrame{Type: "prompt", Prompt: prompt}

		default:
			continue
		}

		start := time.Now()
		outcome := h.Runner.RunTurn(r.Context(), runloop.TurnRequest{
			Prompt:      req.Prompt,
			UserID:      userID,
			ResetThread: req.Reset,
			Deadline:    h.Deadline,
			Provider:    req.Provider,
		})
		h.Monitor.Observe(userID, outcome, time.Since(start))

		var audio []byte
		if h.Synthesizer != nil && outcome.Response != "" {
			// Synthesis failure degrades to text, never drops the turn.
			if a, err := h.Synthesizer.Synthesize(r.Context(), outcome.Response); err == nil {
				audio = a
			} else if h.Logger != nil {
				h.Logger.Warn("synthesis failed", "user_id", userID, "error", err)
			}
		}

		h.writeFrame(conn, wsServerFrame{
			Type:         "response",
			Kind:         outcome.Kind,
			Response:     outcome.Response,
			Transfer:     outcome.Transfer,
			AudioFollows: audio != nil,
		})
		if audio != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = conn.WriteMessage(websocket.BinaryMessage, audio)
		}

		// A transfer hands the caller off; the session is done.
		if outcome.Kind == runloop.OutcomeTransferRequested {
			h.writeClose(conn, "transfer initiated")
			return
		}
	}
}

func (h WSHandler) writeFrame(conn *websocket.Conn, frame wsServerFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(frame); err != nil && h.Logger != nil {
		h.Logger.Warn("websocket write failed", "error", err)
	}
}

func (h WSHandler) writeClose(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(2*time.Second))
}
