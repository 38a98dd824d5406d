package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Zachkp/portfolio/internal/session"
)

const (
	writeWait      = 10 * time.Second
	maxEventSize   = 64 << 10
	errFrameBuffer = 4
)

// handleWS runs one view session for the lifetime of the connection. The
// session is closed when the page disconnects or the server shuts down.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxEventSize)

	log := s.log.With("visitor", currentVisitor(c))
	sess, err := session.New(session.Options{
		Script:    s.cfg.Script(s.site.Name, s.site.Role),
		Scheduler: s.sched,
		Lookahead: s.cfg.Scroll.Lookahead,
		Reveal:    s.cfg.RevealOptions(),
		Logger:    log,
	})
	if err != nil {
		log.Error("creating view session", "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	if err := sess.Start(ctx); err != nil {
		log.Error("starting view session", "error", err)
		return
	}
	log.Debug("view session opened")

	errFrames := make(chan session.Frame, errFrameBuffer)
	go s.readEvents(conn, sess, errFrames, cancel)

	for {
		select {
		case <-sess.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case f := <-sess.Frames():
			if err := s.writeFrame(conn, f); err != nil {
				log.Debug("websocket write", "error", err)
				cancel()
				return
			}
		case f := <-errFrames:
			if err := s.writeFrame(conn, f); err != nil {
				log.Debug("websocket write", "error", err)
				cancel()
				return
			}
		}
	}
}

// readEvents feeds page events into the session until the connection
// fails. Malformed events are answered with an error frame.
func (s *Server) readEvents(conn *websocket.Conn, sess *session.Session, errFrames chan<- session.Frame, cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", "error", err)
			}
			return
		}

		var ev session.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			err = errors.New("malformed event")
			if !sendErrFrame(sess, errFrames, err) {
				return
			}
			continue
		}
		if err := sess.Handle(ev); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return
			}
			if !sendErrFrame(sess, errFrames, err) {
				return
			}
		}
	}
}

func sendErrFrame(sess *session.Session, out chan<- session.Frame, err error) bool {
	select {
	case out <- session.Frame{Type: session.FrameError, Error: err.Error()}:
		return true
	case <-sess.Done():
		return false
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, f session.Frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
