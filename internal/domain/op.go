/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// This file defines the operation data model: one value per source line, each
// carrying exactly the payload its keyword needs. The parser produces these,
// the interpreter consumes them.

// Keyword names as they appear in program text.
const (
	KwCenter    = "center"
	KwPenUp     = "penup"
	KwPenDown   = "pendown"
	KwForward   = "forward"
	KwBackward  = "backward"
	KwTurnLeft  = "turnleft"
	KwTurnRight = "turnright"
	KwDirection = "direction"
	KwGoX       = "gox"
	KwGoY       = "goy"
	KwPenWidth  = "penwidth"
	KwGo        = "go"
	KwPenColor  = "pencolor"
)

// Keywords lists every keyword in the order the statement parser tries them.
var Keywords = []string{
	KwCenter, KwPenUp, KwPenDown,
	KwForward, KwBackward, KwTurnLeft, KwTurnRight, KwDirection, KwGoX, KwGoY, KwPenWidth,
	KwGo, KwPenColor,
}

// Op is one parsed statement. The set of implementations is closed; switch on
// the concrete type to interpret it.
type Op interface {
	// Keyword returns the source keyword, or "" for Pass.
	Keyword() string
	// Args returns the numeric payload in source order.
	Args() []float64
	// String formats the op as canonical program text.
	String() string
	isOp()
}

// Pass is a blank line.
type Pass struct{}

// Center moves the turtle back to the origin without drawing.
type Center struct{}

type PenUp struct{}

type PenDown struct{}

// Forward moves along the heading.
type Forward struct{ Length float64 }

// Backward moves against the heading.
type Backward struct{ Length float64 }

// TurnLeft rotates counter-clockwise by Degrees.
type TurnLeft struct{ Degrees float64 }

// TurnRight rotates clockwise by Degrees.
type TurnRight struct{ Degrees float64 }

// SetDirection sets an absolute heading.
type SetDirection struct{ Degrees float64 }

type GoToX struct{ X float64 }

type GoToY struct{ Y float64 }

type SetPenWidth struct{ Width float64 }

// GoTo moves to an absolute position without drawing.
type GoTo struct{ X, Y float64 }

// SetPenColor carries raw channel values; the interpreter clamps them.
type SetPenColor struct{ R, G, B float64 }

func (Pass) isOp()         {}
func (Center) isOp()       {}
func (PenUp) isOp()        {}
func (PenDown) isOp()      {}
func (Forward) isOp()      {}
func (Backward) isOp()     {}
func (TurnLeft) isOp()     {}
func (TurnRight) isOp()    {}
func (SetDirection) isOp() {}
func (GoToX) isOp()        {}
func (GoToY) isOp()        {}
func (SetPenWidth) isOp()  {}
func (GoTo) isOp()         {}
func (SetPenColor) isOp()  {}

func (Pass) Keyword() string         { return "" }
func (Center) Keyword() string       { return KwCenter }
func (PenUp) Keyword() string        { return KwPenUp }
func (PenDown) Keyword() string      { return KwPenDown }
func (Forward) Keyword() string      { return KwForward }
func (Backward) Keyword() string     { return KwBackward }
func (TurnLeft) Keyword() string     { return KwTurnLeft }
func (TurnRight) Keyword() string    { return KwTurnRight }
func (SetDirection) Keyword() string { return KwDirection }
func (GoToX) Keyword() string        { return KwGoX }
func (GoToY) Keyword() string        { return KwGoY }
func (SetPenWidth) Keyword() string  { return KwPenWidth }
func (GoTo) Keyword() string         { return KwGo }
func (SetPenColor) Keyword() string  { return KwPenColor }

func (Pass) Args() []float64           { return nil }
func (Center) Args() []float64         { return nil }
func (PenUp) Args() []float64          { return nil }
func (PenDown) Args() []float64        { return nil }
func (o Forward) Args() []float64      { return []float64{o.Length} }
func (o Backward) Args() []float64     { return []float64{o.Length} }
func (o TurnLeft) Args() []float64     { return []float64{o.Degrees} }
func (o TurnRight) Args() []float64    { return []float64{o.Degrees} }
func (o SetDirection) Args() []float64 { return []float64{o.Degrees} }
func (o GoToX) Args() []float64        { return []float64{o.X} }
func (o GoToY) Args() []float64        { return []float64{o.Y} }
func (o SetPenWidth) Args() []float64  { return []float64{o.Width} }
func (o GoTo) Args() []float64         { return []float64{o.X, o.Y} }
func (o SetPenColor) Args() []float64  { return []float64{o.R, o.G, o.B} }

func (o Pass) String() string         { return format(o) }
func (o Center) String() string       { return format(o) }
func (o PenUp) String() string        { return format(o) }
func (o PenDown) String() string      { return format(o) }
func (o Forward) String() string      { return format(o) }
func (o Backward) String() string     { return format(o) }
func (o TurnLeft) String() string     { return format(o) }
func (o TurnRight) String() string    { return format(o) }
func (o SetDirection) String() string { return format(o) }
func (o GoToX) String() string        { return format(o) }
func (o GoToY) String() string        { return format(o) }
func (o SetPenWidth) String() string  { return format(o) }
func (o GoTo) String() string         { return format(o) }
func (o SetPenColor) String() string  { return format(o) }

// format renders "keyword a, b, c" with the shortest exact float form.
func format(o Op) string {
	kw := o.Keyword()
	args := o.Args()
	if len(args) == 0 {
		return kw
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	return kw + " " + strings.Join(parts, ", ")
}

// Arity returns the number of numeric arguments keyword takes, or -1 if the
// keyword is unknown.
func Arity(keyword string) int {
	switch keyword {
	case "", KwCenter, KwPenUp, KwPenDown:
		return 0
	case KwForward, KwBackward, KwTurnLeft, KwTurnRight, KwDirection, KwGoX, KwGoY, KwPenWidth:
		return 1
	case KwGo:
		return 2
	case KwPenColor:
		return 3
	default:
		return -1
	}
}

// NewOp builds the op for keyword from args. "" yields Pass.
func NewOp(keyword string, args ...float64) (Op, error) {
	n := Arity(keyword)
	if n < 0 {
		return nil, fmt.Errorf("unknown keyword %q", keyword)
	}
	if len(args) != n {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", displayKeyword(keyword), n, len(args))
	}
	switch keyword {
	case "":
		return Pass{}, nil
	case KwCenter:
		return Center{}, nil
	case KwPenUp:
		return PenUp{}, nil
	case KwPenDown:
		return PenDown{}, nil
	case KwForward:
		return Forward{Length: args[0]}, nil
	case KwBackward:
		return Backward{Length: args[0]}, nil
	case KwTurnLeft:
		return TurnLeft{Degrees: args[0]}, nil
	case KwTurnRight:
		return TurnRight{Degrees: args[0]}, nil
	case KwDirection:
		return SetDirection{Degrees: args[0]}, nil
	case KwGoX:
		return GoToX{X: args[0]}, nil
	case KwGoY:
		return GoToY{Y: args[0]}, nil
	case KwPenWidth:
		return SetPenWidth{Width: args[0]}, nil
	case KwGo:
		return GoTo{X: args[0], Y: args[1]}, nil
	default:
		return SetPenColor{R: args[0], G: args[1], B: args[2]}, nil
	}
}

func displayKeyword(k string) string {
	if k == "" {
		return "pass"
	}
	return k
}

// wireOp is the JSON shape of an op: {"op":"go","args":[10,20]}.
type wireOp struct {
	Op   string    `json:"op"`
	Args []float64 `json:"args,omitempty"`
}

// MarshalOps encodes ops as a JSON array of {"op","args"} objects. Pass is
// encoded with op "pass".
func MarshalOps(ops []Op) ([]byte, error) {
	out := make([]wireOp, len(ops))
	for i, o := range ops {
		if o == nil {
			return nil, fmt.Errorf("op %d is nil", i)
		}
		out[i] = wireOp{Op: displayKeyword(o.Keyword()), Args: o.Args()}
	}
	return json.Marshal(out)
}

// UnmarshalOps is the inverse of MarshalOps.
func UnmarshalOps(b []byte) ([]Op, error) {
	var in []wireOp
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, err
	}
	ops := make([]Op, 0, len(in))
	for i, w := range in {
		kw := w.Op
		if kw == "pass" {
			kw = ""
		}
		o, err := NewOp(kw, w.Args...)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, o)
	}
	return ops, nil
}
