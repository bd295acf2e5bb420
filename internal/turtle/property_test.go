/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"goturtle/internal/domain"
)

func TestHeadingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("headings stay in [0, 360)", prop.ForAll(
		func(turns []float64) bool {
			st := NewState(Options{})
			in := New(nil, Options{})
			for _, q := range turns {
				in.Apply(&st, domain.TurnRight{Degrees: q})
				if st.Heading < 0 || st.Heading >= 360 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-10000, 10000)),
	))

	properties.Property("turnleft undoes turnright for whole degrees", prop.ForAll(
		func(start, q int) bool {
			st := NewState(Options{})
			in := New(nil, Options{})
			in.Apply(&st, domain.SetDirection{Degrees: float64(start)})
			before := st.Heading
			in.Apply(&st, domain.TurnRight{Degrees: float64(q)})
			in.Apply(&st, domain.TurnLeft{Degrees: float64(q)})
			return st.Heading == before
		},
		gen.IntRange(-720, 720), gen.IntRange(-1000, 1000),
	))

	properties.Property("forward then backward returns to the start", prop.ForAll(
		func(h, q float64) bool {
			st := NewState(Options{Origin: domain.Point{X: 10, Y: 20}})
			in := New(nil, Options{})
			in.Apply(&st, domain.SetDirection{Degrees: h})
			in.Apply(&st, domain.Forward{Length: q})
			in.Apply(&st, domain.Backward{Length: q})
			return math.Abs(st.Position.X-10) < 1e-6 && math.Abs(st.Position.Y-20) < 1e-6
		},
		gen.Float64Range(0, 360), gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}
