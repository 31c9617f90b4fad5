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

// Package local implements [decomp.Partition] for a group of ranks living in
// one Go process. Each rank is a goroutine; collective transposes exchange
// sub-boxes through per-pair mailboxes.
//
// The natural decomposition splits the global grid over a px×py×pz process
// grid. A pencil along an axis folds that axis' process count into the next
// axis, so every rank owns the full extent of the pencil axis:
//
//	X pencils: 1 × px·py × pz
//	Y pencils: px × 1 × py·pz
//	Z pencils: px·pz × py × 1
//
// When the next axis has too few cells (a 2-D grid with nz = 1, say) the
// count goes to the remaining axis instead, e.g. Y pencils become
// px·py × 1 × 1.
//
// Ranks are numbered column-major over each process grid. Extents are split
// as evenly as possible with the remainder going to the leading parts.
//
// Example:
//
//	w, _ := local.NewWorld([3]int{64, 64, 64}, [3]int{2, 2, 1})
//	defer w.Close()
//	err := w.Run(func(rank int, p *local.Partition) error {
//	    a, err := pencil.New(p, decomp.X, 3)
//	    ...
//	})
package local
