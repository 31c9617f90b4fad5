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
	"github.com/pkg/errors"
)

// Reshaper converts between dim-dimensional arrays, with an optional trailing
// component axis, and 3-D working volumes. A 2-D array maps to a volume with
// a unit z extent.
//
// Only column-major data can be viewed without copying, so a Reshaper only
// accepts arrays in its own order.
type Reshaper struct {
	dim   int
	order Order
}

// NewReshaper returns a reshaper for arrays of dimensionality dim (2 or 3).
func NewReshaper(dim int, order Order) (*Reshaper, error) {
	if dim != 2 && dim != 3 {
		return nil, errors.Wrapf(ErrRank, "dimensionality must be 2 or 3, got %d", dim)
	}
	if order != ColumnMajor {
		return nil, errors.Wrapf(ErrOrder, "working volumes are column-major, got %s", order)
	}
	return &Reshaper{dim: dim, order: order}, nil
}

// Dim returns the grid dimensionality.
func (r *Reshaper) Dim() int { return r.dim }

// Components returns the number of components of a and whether a has an
// explicit component axis.
func (r *Reshaper) Components(a *Array) (int, bool, error) {
	switch a.Rank() {
	case r.dim:
		return 1, false, nil
	case r.dim + 1:
		return a.shape[r.dim], true, nil
	}
	return 0, false, errors.Wrapf(ErrRank, "%d-D grid data must have rank %d or %d, got shape %v",
		r.dim, r.dim, r.dim+1, a.shape)
}

// GridShape returns the leading grid extents of a padded to three axes.
func (r *Reshaper) GridShape(a *Array) ([3]int, error) {
	if _, _, err := r.Components(a); err != nil {
		return [3]int{}, err
	}
	shape := [3]int{1, 1, 1}
	copy(shape[:], a.shape[:r.dim])
	return shape, nil
}

// ToVolume returns the 3-D view of component c of a. The view shares a's
// storage.
func (r *Reshaper) ToVolume(a *Array, c int) (*Volume, error) {
	if a.order != r.order {
		return nil, errors.Wrapf(ErrOrder, "array is %s, reshaper expects %s", a.order, r.order)
	}
	nc, _, err := r.Components(a)
	if err != nil {
		return nil, err
	}
	if c < 0 || c >= nc {
		return nil, errors.Wrapf(ErrComponent, "component %d of %d", c, nc)
	}
	shape, err := r.GridShape(a)
	if err != nil {
		return nil, err
	}
	n := shape[0] * shape[1] * shape[2]
	return &Volume{dtype: a.dtype, shape: shape, components: 1, data: subSlice(a.data, c*n, (c+1)*n)}, nil
}

// FromVolume returns the array view of v. The trailing component axis is
// kept when keepComponentAxis is set or v has more than one component.
func (r *Reshaper) FromVolume(v *Volume, keepComponentAxis bool) (*Array, error) {
	if r.dim == 2 && v.shape[2] != 1 {
		return nil, errors.Wrapf(ErrShape, "2-D data needs a unit z extent, volume is %v", v.shape)
	}
	shape := make([]int, r.dim, r.dim+1)
	copy(shape, v.shape[:r.dim])
	if keepComponentAxis || v.components > 1 {
		shape = append(shape, v.components)
	}
	return &Array{dtype: v.dtype, order: r.order, shape: shape, data: v.data}, nil
}
