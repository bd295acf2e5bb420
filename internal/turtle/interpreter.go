/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package turtle replays parsed operations as pen movements on a Surface.
//
// Conventions: the pen draws while it is down and starts up; heading 0
// points up and positive turns go clockwise on screen, with y growing
// downward. "go", "gox" and "goy" take surface coordinates.
package turtle

import (
	"fmt"

	"goturtle/internal/domain"
)

// InternalError is the panic value for an operation the interpreter does not
// know. The parser never produces one, so this is a bug, not a user error.
type InternalError struct {
	Op domain.Op
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("turtle: unknown operation %T", e.Op)
}

// Interpreter drives a Surface from an op list.
type Interpreter struct {
	surface Surface
	opts    Options
}

// New returns an interpreter drawing on s.
func New(s Surface, opts Options) *Interpreter {
	if s == nil {
		s = Discard
	}
	return &Interpreter{surface: s, opts: opts}
}

// Run performs one full pass: reset the surface, apply every op in order,
// stroke what is left and draw the marker if enabled. It returns the final
// state. Run panics with *InternalError on an unknown op.
func (in *Interpreter) Run(ops []domain.Op) State {
	st := NewState(in.opts)
	in.Reset(&st)
	for _, op := range ops {
		in.Apply(&st, op)
	}
	in.surface.Stroke()
	if in.opts.Marker {
		if m, ok := in.surface.(MarkerSurface); ok {
			m.DrawMarker(st.Position.X, st.Position.Y, st.Heading)
		}
	}
	return st
}

// Reset clears the surface and applies st's position and style.
func (in *Interpreter) Reset(st *State) {
	s := in.surface
	s.Clear()
	s.BeginPath()
	s.MoveTo(st.Position.X, st.Position.Y)
	s.SetLineWidth(st.PenWidth)
	s.SetStrokeColor(st.PenColor)
}

// Apply executes a single op against st.
func (in *Interpreter) Apply(st *State, op domain.Op) {
	switch o := op.(type) {
	case domain.Pass:
	case domain.Forward:
		in.move(st, o.Length)
	case domain.Backward:
		in.move(st, -o.Length)
	case domain.TurnRight:
		st.Heading = NormalizeHeading(st.Heading + o.Degrees)
	case domain.TurnLeft:
		st.Heading = NormalizeHeading(st.Heading - o.Degrees)
	case domain.SetDirection:
		st.Heading = NormalizeHeading(o.Degrees)
	case domain.Center:
		in.relocate(st, in.opts.Origin)
	case domain.GoTo:
		in.relocate(st, domain.Point{X: o.X, Y: o.Y})
	case domain.GoToX:
		in.relocate(st, domain.Point{X: o.X, Y: st.Position.Y})
	case domain.GoToY:
		in.relocate(st, domain.Point{X: st.Position.X, Y: o.Y})
	case domain.PenUp:
		in.flush(st)
		st.PenDown = false
	case domain.PenDown:
		in.flush(st)
		st.PenDown = true
	case domain.SetPenWidth:
		in.flush(st)
		// Like a canvas, non-positive widths leave the width unchanged.
		if o.Width > 0 {
			st.PenWidth = o.Width
			in.surface.SetLineWidth(o.Width)
		}
	case domain.SetPenColor:
		in.flush(st)
		st.PenColor = domain.RGB{R: domain.Channel(o.R), G: domain.Channel(o.G), B: domain.Channel(o.B)}
		in.surface.SetStrokeColor(st.PenColor)
	default:
		panic(&InternalError{Op: op})
	}
}

func (in *Interpreter) move(st *State, q float64) {
	dx, dy := step(st.Heading, q)
	st.Position.X += dx
	st.Position.Y += dy
	if st.PenDown {
		in.surface.LineTo(st.Position.X, st.Position.Y)
	} else {
		in.surface.MoveTo(st.Position.X, st.Position.Y)
	}
}

// flush strokes the current path and starts a new one at the pen.
func (in *Interpreter) flush(st *State) {
	in.surface.Stroke()
	in.surface.BeginPath()
	in.surface.MoveTo(st.Position.X, st.Position.Y)
}

// relocate flushes and moves the pen to p without drawing.
func (in *Interpreter) relocate(st *State, p domain.Point) {
	in.surface.Stroke()
	in.surface.BeginPath()
	st.Position = p
	in.surface.MoveTo(p.X, p.Y)
}

// Render runs ops on s with opts in one call.
func Render(s Surface, opts Options, ops []domain.Op) State {
	return New(s, opts).Run(ops)
}
