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

// Package decomp defines the grid partition capability: the description of
// how a global 3-D grid is split across processes, both as natural blocks and
// as pencils along each axis, and the collective transposes between them.
//
// The concrete communication is provided by implementations of [Partition];
// see package local for an in-process one.
package decomp

import (
	"fmt"

	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/pkg/errors"
)

var (
	ErrAxis  = errors.New("decomp: invalid axis")
	ErrBlock = errors.New("decomp: inconsistent block")
)

// Axis selects a coordinate direction.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Valid reports whether a is X, Y or Z.
func (a Axis) Valid() bool { return a >= X && a <= Z }

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis parses "x", "y" or "z" (or "0", "1", "2").
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X", "0":
		return X, nil
	case "y", "Y", "1":
		return Y, nil
	case "z", "Z", "2":
		return Z, nil
	}
	return 0, errors.Wrapf(ErrAxis, "%q", s)
}

// Indexing is the convention a partition uses for block bounds.
type Indexing int

const (
	ZeroBased Indexing = iota
	OneBased
)

func (ix Indexing) String() string {
	if ix == OneBased {
		return "one-based"
	}
	return "zero-based"
}

// Offset returns the value of the first index under this convention.
func (ix Indexing) Offset() int {
	if ix == OneBased {
		return 1
	}
	return 0
}

// Block is the local box owned by one process. Lo and Hi are inclusive
// bounds in global grid coordinates.
type Block struct {
	Size [3]int
	Lo   [3]int
	Hi   [3]int
}

// ToZeroBased returns b expressed in zero-based coordinates, given that b
// uses the convention ix.
func (b Block) ToZeroBased(ix Indexing) Block {
	off := ix.Offset()
	for i := range 3 {
		b.Lo[i] -= off
		b.Hi[i] -= off
	}
	return b
}

// Validate checks that sizes are non-negative and Hi = Lo + Size - 1.
func (b Block) Validate() error {
	for i := range 3 {
		if b.Size[i] < 0 {
			return errors.Wrapf(ErrBlock, "negative size %v", b.Size)
		}
		if b.Hi[i]-b.Lo[i]+1 != b.Size[i] {
			return errors.Wrapf(ErrBlock, "axis %d: lo=%d hi=%d does not span size %d",
				i, b.Lo[i], b.Hi[i], b.Size[i])
		}
	}
	return nil
}

// Len returns the number of cells in the block.
func (b Block) Len() int { return b.Size[0] * b.Size[1] * b.Size[2] }

// Intersect returns the overlap of b and o. ok is false when they are
// disjoint.
func (b Block) Intersect(o Block) (r Block, ok bool) {
	for i := range 3 {
		r.Lo[i] = max(b.Lo[i], o.Lo[i])
		r.Hi[i] = min(b.Hi[i], o.Hi[i])
		r.Size[i] = r.Hi[i] - r.Lo[i] + 1
		if r.Size[i] <= 0 {
			return Block{}, false
		}
	}
	return r, true
}

func (b Block) String() string {
	return fmt.Sprintf("%v[%v..%v]", b.Size, b.Lo, b.Hi)
}

// Partition is the grid partition capability of one process.
//
// Bounds returned by Natural and the pencil methods use the convention
// reported by Indexing. Volumes passed to the transposes are column-major,
// single-component and shaped exactly as the source and destination blocks.
//
// Every transpose is collective: all processes of the decomposition must
// issue the same transposes in the same order.
type Partition interface {
	Indexing() Indexing

	Natural() Block
	XPencil() Block
	YPencil() Block
	ZPencil() Block

	TransposeNaturalToX(in, out *ndarray.Volume) error
	TransposeNaturalToY(in, out *ndarray.Volume) error
	TransposeNaturalToZ(in, out *ndarray.Volume) error
	TransposeXToNatural(in, out *ndarray.Volume) error
	TransposeYToNatural(in, out *ndarray.Volume) error
	TransposeZToNatural(in, out *ndarray.Volume) error
}

// Pencil returns p's pencil block along axis a.
func Pencil(p Partition, a Axis) (Block, error) {
	switch a {
	case X:
		return p.XPencil(), nil
	case Y:
		return p.YPencil(), nil
	case Z:
		return p.ZPencil(), nil
	}
	return Block{}, errors.Wrapf(ErrAxis, "%d", int(a))
}

// TransposeFunc is one directional collective transpose.
type TransposeFunc func(in, out *ndarray.Volume) error

// ToPencil returns the natural-to-pencil transpose of p along a.
func ToPencil(p Partition, a Axis) (TransposeFunc, error) {
	switch a {
	case X:
		return p.TransposeNaturalToX, nil
	case Y:
		return p.TransposeNaturalToY, nil
	case Z:
		return p.TransposeNaturalToZ, nil
	}
	return nil, errors.Wrapf(ErrAxis, "%d", int(a))
}

// FromPencil returns the pencil-to-natural transpose of p along a.
func FromPencil(p Partition, a Axis) (TransposeFunc, error) {
	switch a {
	case X:
		return p.TransposeXToNatural, nil
	case Y:
		return p.TransposeYToNatural, nil
	case Z:
		return p.TransposeZToNatural, nil
	}
	return nil, errors.Wrapf(ErrAxis, "%d", int(a))
}
