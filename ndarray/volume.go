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

// Volume is the fixed-rank working buffer exchanged with a grid partition: a
// column-major nx×ny×nz box, optionally repeated for several components.
// Component c occupies elements [c*nx*ny*nz, (c+1)*nx*ny*nz).
type Volume struct {
	dtype      DType
	shape      [3]int
	components int
	data       any
}

// NewVolume allocates a zeroed volume.
func NewVolume(dtype DType, shape [3]int, components int) (*Volume, error) {
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrDType, "unknown element type %s", dtype)
	}
	if shape[0] < 0 || shape[1] < 0 || shape[2] < 0 {
		return nil, errors.Wrapf(ErrShape, "negative volume extent %v", shape)
	}
	if components < 1 {
		return nil, errors.Wrapf(ErrShape, "component count must be positive, got %d", components)
	}
	n := shape[0] * shape[1] * shape[2] * components
	return &Volume{dtype: dtype, shape: shape, components: components, data: makeSlice(dtype, n)}, nil
}

// WrapVolume builds a single-component volume over data without copying.
func WrapVolume[T Element](data []T, shape [3]int) (*Volume, error) {
	if n := shape[0] * shape[1] * shape[2]; n != len(data) || shape[0] < 0 || shape[1] < 0 || shape[2] < 0 {
		return nil, errors.Wrapf(ErrShape, "volume %v cannot hold %d elements", shape, len(data))
	}
	return &Volume{dtype: DTypeOf[T](), shape: shape, components: 1, data: data}, nil
}

// VolumeValues returns the backing slice of v as []T.
func VolumeValues[T Element](v *Volume) ([]T, error) {
	s, ok := v.data.([]T)
	if !ok {
		return nil, errors.Wrapf(ErrDType, "volume holds %s, requested %s", v.dtype, DTypeOf[T]())
	}
	return s, nil
}

// DType returns the element type.
func (v *Volume) DType() DType { return v.dtype }

// Shape returns the per-component extents.
func (v *Volume) Shape() [3]int { return v.shape }

// Components returns the number of stacked components.
func (v *Volume) Components() int { return v.components }

// Cells returns the number of elements in one component.
func (v *Volume) Cells() int { return v.shape[0] * v.shape[1] * v.shape[2] }

// Data returns the backing slice covering all components.
func (v *Volume) Data() any { return v.data }

// Component returns a single-component view of component c sharing v's
// storage.
func (v *Volume) Component(c int) (*Volume, error) {
	if c < 0 || c >= v.components {
		return nil, errors.Wrapf(ErrComponent, "component %d of %d", c, v.components)
	}
	n := v.Cells()
	return &Volume{dtype: v.dtype, shape: v.shape, components: 1, data: subSlice(v.data, c*n, (c+1)*n)}, nil
}
