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

// Package ndarray provides the small dense array abstraction used by the
// pencil transposes, together with the reshaper that turns a caller array
// into the fixed 3-D working volumes consumed by a grid partition.
//
// Every [Array] carries its element order explicitly. Grid partitions work on
// column-major (Fortran order) data, where the first axis varies fastest:
//
//	// A 2-component 8×8×4 field, column-major.
//	a := ndarray.New[float64](ndarray.ColumnMajor, 8, 8, 4, 2)
//
//	r, _ := ndarray.NewReshaper(3, ndarray.ColumnMajor)
//	v, _ := r.ToVolume(a, 1) // 8×8×4 view of component 1, no copy
//
// A trailing axis of size C after the grid axes is a component axis. Each
// component is stored contiguously, so a per-component [Volume] is a sub-slice
// of the backing storage.
package ndarray
