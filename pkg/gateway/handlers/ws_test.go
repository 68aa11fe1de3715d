package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/convonet/assistant/pkg/agent/runloop"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f fakeSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return f.audio, f.err
}

func dialWS(t *testing.T, h WSHandler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readServerFrame(t *testing.T, conn *websocket.Conn) wsServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out wsServerFrame
	if err := json.Unmarshal(frame, &out); err != nil {
		t.Fatalf("decode %s: %v", frame, err)
	}
	return out
}

func TestWSHandlerTextTurn(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.Answered("Added milk to your list.")}
	conn := dialWS(t, WSHandler{Runner: runner, Monitor: runloop.NewMonitor(8), Deadline: 20 * time.Second})

	_ = conn.WriteJSON(wsClientFrame{Type: "hello", UserID: "u1"})
	_ = conn.WriteJSON(wsClientFrame{Type: "prompt", Prompt: "add milk"})

	resp := readServerFrame(t, conn)
	if resp.Type != "response" || resp.Response != "Added milk to your list." {
		t.Errorf("frame = %+v", resp)
	}
	if resp.AudioFollows {
		t.Error("no synthesizer configured, audio must not follow")
	}
	if runner.lastReq.UserID != "u1" || runner.lastReq.Deadline != 20*time.Second {
		t.Errorf("turn request = %+v", runner.lastReq)
	}
}

func TestWSHandlerAudioTurn(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.Answered("You have two reminders.")}
	conn := dialWS(t, WSHandler{
		Runner:      runner,
		Monitor:     runloop.NewMonitor(8),
		Transcriber: fakeTranscriber{text: "what are my reminders"},
		Synthesizer: fakeSynthesizer{audio: []byte{0x01, 0x02}},
	})

	_ = conn.WriteJSON(wsClientFrame{Type: "hello", UserID: "u1"})
	_ = conn.WriteMessage(websocket.BinaryMessage, []byte("pcm-audio"))

	resp := readServerFrame(t, conn)
	if resp.Type != "response" || !resp.AudioFollows {
		t.Fatalf("frame = %+v", resp)
	}
	if runner.lastReq.Prompt != "what are my reminders" {
		t.Errorf("prompt = %q", runner.lastReq.Prompt)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, audio, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if messageType != websocket.BinaryMessage || len(audio) != 2 {
		t.Errorf("audio frame = %d %v", messageType, audio)
	}
}

func TestWSHandlerAudioWithoutTranscriber(t *testing.T) {
	conn := dialWS(t, WSHandler{Runner: &fakeRunner{}, Monitor: runloop.NewMonitor(8)})

	_ = conn.WriteJSON(wsClientFrame{Type: "hello", UserID: "u1"})
	_ = conn.WriteMessage(websocket.BinaryMessage, []byte("pcm-audio"))

	resp := readServerFrame(t, conn)
	if resp.Type != "error" {
		t.Errorf("frame = %+v", resp)
	}
}

func TestWSHandlerSynthesisFailureDegradesToText(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.Answered("ok")}
	conn := dialWS(t, WSHandler{
		Runner:      runner,
		Monitor:     runloop.NewMonitor(8),
		Synthesizer: fakeSynthesizer{err: errors.New("voice service down")},
	})

	_ = conn.WriteJSON(wsClientFrame{Type: "hello", UserID: "u1"})
	_ = conn.WriteJSON(wsClientFrame{Type: "prompt", Prompt: "hi"})

	resp := readServerFrame(t, conn)
	if resp.Type != "response" || resp.Response != "ok" || resp.AudioFollows {
		t.Errorf("frame = %+v", resp)
	}
}

func TestWSHandlerTransferClosesSession(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.TransferTo(runloop.Transfer{
		Extension: "2001", Department: "support", Reason: "escalation",
	})}
	conn := dialWS(t, WSHandler{Runner: runner, Monitor: runloop.NewMonitor(8)})

	_ = conn.WriteJSON(wsClientFrame{Type: "hello", UserID: "u1"})
	_ = conn.WriteJSON(wsClientFrame{Type: "prompt", Prompt: "get me a human"})

	resp := readServerFrame(t, conn)
	if resp.Kind != runloop.OutcomeTransferRequested || resp.Transfer == nil {
		t.Fatalf("frame = %+v", resp)
	}

	// The handler closes after a transfer; the next read sees the close.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected session close after transfer")
	}
}

func TestWSHandlerRejectsMissingHello(t *testing.T) {
	conn := dialWS(t, WSHandler{Runner: &fakeRunner{}, Monitor: runloop.NewMonitor(8)})

	_ = conn.WriteJSON(wsClientFrame{Type: "prompt", Prompt: "hi"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected close on a session with no hello")
	}
}
