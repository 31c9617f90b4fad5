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

package pencil

import (
	"log/slog"
	"slices"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
)

// Option configures an Adapter.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug records of each transpose.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Adapter transposes one process's part of a distributed field between the
// natural layout and pencils along a fixed axis. The block geometry is read
// from the partition once, in New, and never changes.
//
// An Adapter may be shared between goroutines for its accessors, but
// transposes are collective and must be issued in the same order on every
// process.
type Adapter struct {
	part     decomp.Partition
	axis     decomp.Axis
	dim      int
	natural  decomp.Block // zero-based
	pencil   decomp.Block // zero-based
	toPencil decomp.TransposeFunc
	toNat    decomp.TransposeFunc
	reshaper *ndarray.Reshaper
	logger   *slog.Logger
}

// New returns an adapter for pencils along axis of dim-dimensional data (2 or
// 3). Arguments are checked before the partition is queried; axis must be
// smaller than dim.
func New(p decomp.Partition, axis decomp.Axis, dim int, opts ...Option) (*Adapter, error) {
	if p == nil {
		return nil, configError("grid partition is nil")
	}
	if dim != 2 && dim != 3 {
		return nil, configError("only 2-D or 3-D data can be transposed, got dimensionality %d", dim)
	}
	if !axis.Valid() {
		return nil, configError("axis %d is not x, y or z", int(axis))
	}
	if int(axis) >= dim {
		return nil, configError("axis %s is not meaningful for %d-D data", axis, dim)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	ix := p.Indexing()
	natural := p.Natural().ToZeroBased(ix)
	pen, _ := decomp.Pencil(p, axis)
	pen = pen.ToZeroBased(ix)
	for _, b := range []struct {
		name  string
		block decomp.Block
	}{{"natural", natural}, {axis.String() + " pencil", pen}} {
		if err := b.block.Validate(); err != nil {
			return nil, configError("%s block %v: %v", b.name, b.block, err)
		}
		if dim == 2 && b.block.Size[2] != 1 {
			return nil, configError("%s block %v of 2-D data must have unit z extent", b.name, b.block)
		}
	}

	to, _ := decomp.ToPencil(p, axis)
	from, _ := decomp.FromPencil(p, axis)
	r, err := ndarray.NewReshaper(dim, ndarray.ColumnMajor)
	if err != nil {
		return nil, configError("%v", err)
	}
	return &Adapter{
		part:     p,
		axis:     axis,
		dim:      dim,
		natural:  natural,
		pencil:   pen,
		toPencil: to,
		toNat:    from,
		reshaper: r,
		logger:   o.logger,
	}, nil
}

// Partition returns the grid partition the adapter was built on.
func (a *Adapter) Partition() decomp.Partition { return a.part }

// Axis returns the pencil axis.
func (a *Adapter) Axis() decomp.Axis { return a.axis }

// Dim returns the dimensionality of the data.
func (a *Adapter) Dim() int { return a.dim }

// FullPencilBounds returns the inclusive zero-based bounds of this process's
// pencil.
func (a *Adapter) FullPencilBounds() (lo, hi []int) {
	return slices.Clone(a.pencil.Lo[:a.dim]), slices.Clone(a.pencil.Hi[:a.dim])
}

// FullPencilSize returns the extents of this process's pencil.
func (a *Adapter) FullPencilSize() []int {
	return slices.Clone(a.pencil.Size[:a.dim])
}

// NaturalBounds returns the inclusive zero-based bounds of this process's
// natural block.
func (a *Adapter) NaturalBounds() (lo, hi []int) {
	return slices.Clone(a.natural.Lo[:a.dim]), slices.Clone(a.natural.Hi[:a.dim])
}

// NaturalSize returns the extents of this process's natural block.
func (a *Adapter) NaturalSize() []int {
	return slices.Clone(a.natural.Size[:a.dim])
}
