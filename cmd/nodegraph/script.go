package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ha1tch/nodegraph/pkg/canvas"
)

// step is one scripted gesture, written on the command line as
// verb[:args], e.g. "down:265,150", "wheel:-100", "create", "remove:2".
type step struct {
	verb string
	x, y float64
	id   int
}

func parseSteps(args []string) ([]step, error) {
	steps := make([]step, 0, len(args))
	for _, arg := range args {
		s, err := parseStep(arg)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func parseStep(arg string) (step, error) {
	verb, rest, _ := strings.Cut(arg, ":")
	s := step{verb: verb}

	switch verb {
	case "down", "move", "up":
		xs, ys, ok := strings.Cut(rest, ",")
		if !ok {
			return s, fmt.Errorf("step %q: want %s:x,y", arg, verb)
		}
		var err error
		if s.x, err = parseNumber(xs); err != nil {
			return s, fmt.Errorf("step %q: %w", arg, err)
		}
		if s.y, err = parseNumber(ys); err != nil {
			return s, fmt.Errorf("step %q: %w", arg, err)
		}
	case "wheel":
		dy, err := parseNumber(rest)
		if err != nil {
			return s, fmt.Errorf("step %q: %w", arg, err)
		}
		s.y = dy
	case "remove":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return s, fmt.Errorf("step %q: %w", arg, err)
		}
		s.id = id
	case "create", "focusout", "leave":
		if rest != "" {
			return s, fmt.Errorf("step %q: %s takes no arguments", arg, verb)
		}
	default:
		return s, fmt.Errorf("step %q: unknown verb %q", arg, verb)
	}
	return s, nil
}

// parseNumber parses a finite float.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// apply drives c through s, hit-testing pointer positions like a host.
func (s step) apply(c *canvas.Canvas) {
	switch s.verb {
	case "down":
		c.Handle(canvas.Event{Kind: canvas.EventPointerDown, Target: c.HitTest(s.x, s.y), X: s.x, Y: s.y})
	case "move":
		c.Handle(canvas.Event{Kind: canvas.EventPointerMove, X: s.x, Y: s.y})
	case "up":
		c.Handle(canvas.Event{Kind: canvas.EventPointerUp, Target: c.HitTest(s.x, s.y), X: s.x, Y: s.y})
	case "wheel":
		c.Handle(canvas.Event{Kind: canvas.EventWheel, DeltaY: s.y})
	case "focusout":
		c.Handle(canvas.Event{Kind: canvas.EventFocusOut})
	case "leave":
		c.Handle(canvas.Event{Kind: canvas.EventPointerLeave})
	case "create":
		c.CreateNode()
	case "remove":
		c.RemoveNode(s.id)
	}
}
