package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ha1tch/nodegraph/pkg/bridge"
	"github.com/ha1tch/nodegraph/pkg/canvas"
)

// Message types.
const (
	// inbound
	TypeEvent   = "event"   // data: canvas.Event with an explicit target
	TypePointer = "pointer" // data: Pointer; the server hit-tests the point
	TypeCreate  = "create"  // no data
	TypeRemove  = "remove"  // data: RemoveRequest
	TypeInvoke  = "invoke"  // data: InvokeRequest
	TypeSync    = "sync"    // no data; asks for the current frame

	// outbound
	TypeFrame   = "frame"   // data: canvas.Frame
	TypeCreated = "created" // data: Created
	TypeInvoked = "invoked" // data: bridge.Result plus error text
	TypeError   = "error"   // data: ErrorBody
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Pointer is a raw pointer event without a target.
type Pointer struct {
	Kind   canvas.EventKind `json:"kind"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	DeltaY float64          `json:"deltaY,omitempty"`
}

// RemoveRequest names a node to remove.
type RemoveRequest struct {
	NodeID int `json:"node"`
}

// InvokeRequest names a host command.
type InvokeRequest struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// Created reports a new node id.
type Created struct {
	NodeID int `json:"node"`
}

// Invoked reports a finished host command.
type Invoked struct {
	bridge.Result
	Error string `json:"error,omitempty"`
}

// ErrorBody reports a rejected message.
type ErrorBody struct {
	Message string `json:"message"`
}

const writeWait = 10 * time.Second

// client serialises writes to one connection.
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) send(m outMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Info("client connected", "remote", conn.RemoteAddr().String())

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		conn.Close()
		s.log.Info("client disconnected", "remote", conn.RemoteAddr().String())
		s.abandonGesture()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if f, err := s.Frame(ctx); err == nil {
		c.send(outMessage{Type: TypeFrame, Data: f})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", "err", err)
			}
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.send(errorMessage(fmt.Errorf("decode message: %w", err)))
			continue
		}
		if err := s.dispatch(ctx, c, m); err != nil {
			s.log.Debug("message rejected", "type", m.Type, "err", err)
			c.send(errorMessage(err))
		}
	}
}

func errorMessage(err error) outMessage {
	return outMessage{Type: TypeError, Data: ErrorBody{Message: err.Error()}}
}

// dispatch applies one inbound message. Canvas mutations broadcast the new
// frame to every client; the sender's reply is part of that broadcast.
func (s *Server) dispatch(ctx context.Context, c *client, m Message) error {
	switch m.Type {
	case TypeEvent:
		var ev canvas.Event
		if err := decode(m, &ev); err != nil {
			return err
		}
		return s.mutate(ctx, func(cv *canvas.Canvas) (any, error) {
			cv.Handle(ev)
			return nil, nil
		})

	case TypePointer:
		var p Pointer
		if err := decode(m, &p); err != nil {
			return err
		}
		return s.mutate(ctx, func(cv *canvas.Canvas) (any, error) {
			cv.Handle(canvas.Event{Kind: p.Kind, Target: cv.HitTest(p.X, p.Y), X: p.X, Y: p.Y, DeltaY: p.DeltaY})
			return nil, nil
		})

	case TypeCreate:
		var id int
		err := s.mutate(ctx, func(cv *canvas.Canvas) (any, error) {
			id = cv.CreateNode()
			return nil, nil
		})
		if err != nil {
			return err
		}
		return c.send(outMessage{Type: TypeCreated, Data: Created{NodeID: id}})

	case TypeRemove:
		var req RemoveRequest
		if err := decode(m, &req); err != nil {
			return err
		}
		return s.mutate(ctx, func(cv *canvas.Canvas) (any, error) {
			if !cv.RemoveNode(req.NodeID) {
				return nil, fmt.Errorf("unknown node %d", req.NodeID)
			}
			return nil, nil
		})

	case TypeInvoke:
		var req InvokeRequest
		if err := decode(m, &req); err != nil {
			return err
		}
		if req.Name == "" {
			return fmt.Errorf("invoke: missing name")
		}
		ch := s.bridge.Invoke(ctx, req.Name, req.Args...)
		go func() {
			res, ok := <-ch
			if !ok {
				return
			}
			c.send(outMessage{Type: TypeInvoked, Data: Invoked{Result: res, Error: res.ErrString()}})
		}()
		return nil

	case TypeSync:
		f, err := s.Frame(ctx)
		if err != nil {
			return err
		}
		return c.send(outMessage{Type: TypeFrame, Data: f})
	}
	return fmt.Errorf("unknown message type %q", m.Type)
}

// mutate runs fn on the loop and broadcasts the resulting frame.
func (s *Server) mutate(ctx context.Context, fn func(cv *canvas.Canvas) (any, error)) error {
	v, err := s.do(ctx, func(cv *canvas.Canvas) (any, error) {
		if _, err := fn(cv); err != nil {
			return nil, err
		}
		return cv.Frame(), nil
	})
	if err != nil {
		return err
	}
	s.broadcast(outMessage{Type: TypeFrame, Data: v.(canvas.Frame)})
	return nil
}

// abandonGesture resets a gesture in progress when a client goes away, as a
// pointer leaving the surface does.
func (s *Server) abandonGesture() {
	v, err := s.do(context.Background(), func(cv *canvas.Canvas) (any, error) {
		if _, idle := cv.Controller.State().(canvas.Idle); idle {
			return nil, nil
		}
		cv.Handle(canvas.Event{Kind: canvas.EventPointerLeave})
		f := cv.Frame()
		return &f, nil
	})
	if err != nil || v == nil {
		return
	}
	if f, ok := v.(*canvas.Frame); ok && f != nil {
		s.broadcast(outMessage{Type: TypeFrame, Data: *f})
	}
}

func (s *Server) broadcast(m outMessage) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(m); err != nil {
			s.log.Debug("broadcast", "err", err)
		}
	}
}

func decode(m Message, v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: missing data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: %w", m.Type, err)
	}
	return nil
}
