package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Zachkp/portfolio/internal/reveal"
	"github.com/Zachkp/portfolio/internal/scrollspy"
	"github.com/Zachkp/portfolio/internal/session"
)

func dialSession(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if resp.StatusCode != 101 {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) session.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f session.Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return f
}

func TestWebSocketSession(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialSession(t, env)

	if f := readFrame(t, conn); f.Type != session.FrameActive || f.Section != scrollspy.Home {
		t.Fatalf("first frame = %+v", f)
	}
	if f := readFrame(t, conn); f.Type != session.FrameTyping || f.Phase != "typing_name" {
		t.Fatalf("second frame = %+v", f)
	}

	layout := session.Event{Type: session.EventLayout, Sections: scrollspy.Layout{
		scrollspy.Home:  {Top: 0, Height: 800},
		scrollspy.About: {Top: 800, Height: 600},
	}}
	if err := conn.WriteJSON(layout); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(session.Event{Type: session.EventScroll, ScrollY: 750}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != session.FrameActive || f.Section != scrollspy.About {
		t.Fatalf("frame after scroll = %+v", f)
	}

	conn.WriteJSON(session.Event{Type: session.EventObserve, IDs: []string{"about-title"}})
	conn.WriteJSON(session.Event{Type: session.EventIntersect, Entries: []reveal.Entry{
		{ID: "about-title", Top: 200, Height: 50, ViewportHeight: 900},
	}})
	if f := readFrame(t, conn); f.Type != session.FrameReveal || len(f.IDs) != 1 || f.IDs[0] != "about-title" {
		t.Fatalf("reveal frame = %+v", f)
	}
}

func TestWebSocketRejectsBadEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialSession(t, env)
	readFrame(t, conn)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != session.FrameError || f.Error != "malformed event" {
		t.Fatalf("frame = %+v", f)
	}

	conn.WriteJSON(session.Event{Type: "resize"})
	if f := readFrame(t, conn); f.Type != session.FrameError || !strings.Contains(f.Error, "unknown event") {
		t.Fatalf("frame = %+v", f)
	}
}

func TestServerCloseEndsSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialSession(t, env)
	readFrame(t, conn)
	readFrame(t, conn)

	env.srv.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read after Close err = %v, want normal closure", err)
	}
}
