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

package local

import (
	"github.com/ajroetker/go-pencil/internal/workerpool"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/pkg/errors"
)

// MinParallelCells is the smallest sub-box packed or unpacked on the worker
// pool; smaller boxes are copied on the calling rank.
const MinParallelCells = 64 * 64

// boxKernels copies a sub-box between a volume and a contiguous payload.
type boxKernels struct {
	pack   func(v *ndarray.Volume, off, ext [3]int, pool *workerpool.Pool) any
	unpack func(v *ndarray.Volume, off, ext [3]int, payload any, pool *workerpool.Pool) error
}

var (
	kernelsInt32      = newBoxKernels[int32]()
	kernelsInt64      = newBoxKernels[int64]()
	kernelsFloat32    = newBoxKernels[float32]()
	kernelsFloat64    = newBoxKernels[float64]()
	kernelsComplex64  = newBoxKernels[complex64]()
	kernelsComplex128 = newBoxKernels[complex128]()
)

func kernelsFor(d ndarray.DType) (boxKernels, bool) {
	switch d {
	case ndarray.Int32:
		return kernelsInt32, true
	case ndarray.Int64:
		return kernelsInt64, true
	case ndarray.Float32:
		return kernelsFloat32, true
	case ndarray.Float64:
		return kernelsFloat64, true
	case ndarray.Complex64:
		return kernelsComplex64, true
	case ndarray.Complex128:
		return kernelsComplex128, true
	}
	return boxKernels{}, false
}

func newBoxKernels[T ndarray.Element]() boxKernels {
	return boxKernels{
		pack: func(v *ndarray.Volume, off, ext [3]int, pool *workerpool.Pool) any {
			src, _ := ndarray.VolumeValues[T](v)
			buf := make([]T, ext[0]*ext[1]*ext[2])
			forPlanes(pool, ext, func(k0, k1 int) {
				packPlanes(src, v.Shape(), off, ext, buf, k0, k1)
			})
			return buf
		},
		unpack: func(v *ndarray.Volume, off, ext [3]int, payload any, pool *workerpool.Pool) error {
			buf, ok := payload.([]T)
			if !ok {
				return errors.Wrapf(ErrMismatch, "payload is %T, volume holds %s", payload, v.DType())
			}
			if len(buf) != ext[0]*ext[1]*ext[2] {
				return errors.Wrapf(ErrMismatch, "payload has %d cells, box %v", len(buf), ext)
			}
			dst, _ := ndarray.VolumeValues[T](v)
			forPlanes(pool, ext, func(k0, k1 int) {
				unpackPlanes(buf, dst, v.Shape(), off, ext, k0, k1)
			})
			return nil
		},
	}
}

// forPlanes runs fn over the z-planes [0, ext[2]) of a box, on the pool when
// the box is large enough.
func forPlanes(pool *workerpool.Pool, ext [3]int, fn func(k0, k1 int)) {
	if ext[0]*ext[1]*ext[2] < MinParallelCells {
		fn(0, ext[2])
		return
	}
	pool.ParallelFor(ext[2], fn)
}

// packPlanes copies planes [k0, k1) of the box at off with extents ext out of
// a column-major volume of the given shape into buf.
func packPlanes[T any](src []T, shape, off, ext [3]int, buf []T, k0, k1 int) {
	for k := k0; k < k1; k++ {
		for j := 0; j < ext[1]; j++ {
			s := ((off[2]+k)*shape[1]+off[1]+j)*shape[0] + off[0]
			d := (k*ext[1] + j) * ext[0]
			copy(buf[d:d+ext[0]], src[s:s+ext[0]])
		}
	}
}

// unpackPlanes is the inverse of packPlanes.
func unpackPlanes[T any](buf, dst []T, shape, off, ext [3]int, k0, k1 int) {
	for k := k0; k < k1; k++ {
		for j := 0; j < ext[1]; j++ {
			d := ((off[2]+k)*shape[1]+off[1]+j)*shape[0] + off[0]
			s := (k*ext[1] + j) * ext[0]
			copy(dst[d:d+ext[0]], buf[s:s+ext[0]])
		}
	}
}
