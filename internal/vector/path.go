/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	Close
)

type PathCmd struct {
	Op   PathOp
	X, Y float64
}

// Path is a list of straight-line commands with canvas semantics: MoveTo
// starts a subpath, a LineTo with no current subpath starts one at its point.
type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, X: x, Y: y})
}

func (p *Path) LineTo(x, y float64) {
	if len(p.Cmds) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, X: x, Y: y})
}

func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Reset empties the path, keeping its storage.
func (p *Path) Reset() { p.Cmds = p.Cmds[:0] }

// Empty reports whether the path has no commands.
func (p *Path) Empty() bool { return len(p.Cmds) == 0 }

// Subpaths returns the polylines of the path. A closed subpath repeats its
// first point at the end. Subpaths with fewer than two points are dropped:
// they have no length to stroke.
func (p *Path) Subpaths() [][]Pt {
	var out [][]Pt
	var cur []Pt
	emit := func() {
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			emit()
			cur = []Pt{{c.X, c.Y}}
		case LineTo:
			if len(cur) == 0 {
				cur = []Pt{{c.X, c.Y}}
				continue
			}
			cur = append(cur, Pt{c.X, c.Y})
		case Close:
			if len(cur) > 0 {
				start := cur[0]
				cur = append(cur, start)
				emit()
				// Drawing continues from the start of the closed subpath.
				cur = []Pt{start}
			}
		}
	}
	emit()
	return out
}

// Transform returns a copy of the path with m applied to every point.
func (p *Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		if c.Op == Close {
			out.Cmds[i] = c
			continue
		}
		q := m.Apply(Pt{c.X, c.Y})
		out.Cmds[i] = PathCmd{Op: c.Op, X: q.X, Y: q.Y}
	}
	return out
}
