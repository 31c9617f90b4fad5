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

package ndarray

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Order is the memory order of an array's elements.
type Order int

const (
	// ColumnMajor stores the first axis fastest (Fortran order).
	ColumnMajor Order = iota
	// RowMajor stores the last axis fastest (C order).
	RowMajor
)

func (o Order) String() string {
	switch o {
	case ColumnMajor:
		return "column-major"
	case RowMajor:
		return "row-major"
	}
	return "unknown-order"
}

// Array is a dense array with an explicit element order. The backing slice is
// shared, never copied, by the views derived from it.
type Array struct {
	dtype DType
	order Order
	shape []int
	data  any
}

// New allocates a zero-filled array of the given shape. It panics if an
// extent is negative; use Zeros to validate shapes from untrusted input.
func New[T Element](order Order, shape ...int) *Array {
	return &Array{
		dtype: DTypeOf[T](),
		order: order,
		shape: slices.Clone(shape),
		data:  make([]T, NumElements(shape)),
	}
}

// FromSlice wraps data as an array. len(data) must equal the product of shape.
// The array aliases data.
func FromSlice[T Element](data []T, order Order, shape ...int) (*Array, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if n := NumElements(shape); n != len(data) {
		return nil, errors.Wrapf(ErrShape, "shape %v holds %d elements, got %d", shape, n, len(data))
	}
	return &Array{dtype: DTypeOf[T](), order: order, shape: slices.Clone(shape), data: data}, nil
}

// Zeros allocates a zero-filled array of a runtime-selected element type.
func Zeros(dtype DType, order Order, shape ...int) (*Array, error) {
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrDType, "unknown element type %s", dtype)
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return &Array{
		dtype: dtype,
		order: order,
		shape: slices.Clone(shape),
		data:  makeSlice(dtype, NumElements(shape)),
	}, nil
}

// Values returns the backing slice of a as []T.
func Values[T Element](a *Array) ([]T, error) {
	s, ok := a.data.([]T)
	if !ok {
		return nil, errors.Wrapf(ErrDType, "array holds %s, requested %s", a.dtype, DTypeOf[T]())
	}
	return s, nil
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Order returns the element order.
func (a *Array) Order() Order { return a.order }

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array) Len() int { return NumElements(a.shape) }

// Data returns the backing slice, one of the Element slice types.
func (a *Array) Data() any { return a.data }

// NumElements returns the product of the extents in shape.
func NumElements(shape []int) int {
	return lo.Reduce(shape, func(n, d, _ int) int { return n * d }, 1)
}

func checkShape(shape []int) error {
	if len(shape) == 0 {
		return errors.Wrap(ErrShape, "empty shape")
	}
	if !lo.EveryBy(shape, func(d int) bool { return d >= 1 }) {
		return errors.Wrapf(ErrShape, "extents must be positive, got %v", shape)
	}
	return nil
}
