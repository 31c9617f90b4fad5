// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pencil moves a distributed field between its natural block layout
// and pencils aligned with one axis.
//
// Axis-local work such as 1-D transforms or compact finite-difference
// stencils needs every cell along that axis on one process. An [Adapter]
// wraps a [decomp.Partition] and converts a process's local array to and from
// such a pencil:
//
//	a, err := pencil.New(part, decomp.X, 3)
//	if err != nil {
//	    return err
//	}
//	px, err := a.ToPencil(u)      // u is natural-layout, column-major
//	...                           // work along x on px
//	u, err = a.FromPencil(px)
//
// Arrays may carry a trailing component axis (for instance the three
// components of a velocity field); components are transposed one at a time,
// in ascending order, with one collective call each. Every process must make
// the same sequence of calls.
//
// Only real, column-major data is accepted.
package pencil
