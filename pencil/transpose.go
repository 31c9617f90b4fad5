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
	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/pkg/errors"
)

// ToPencil transposes natural-layout data to a pencil along the adapter's
// axis.
//
// data must be real and column-major, with shape equal to the natural block
// size, optionally followed by a component axis. The result has the pencil
// block size followed by the same component axis, if any. data is not
// modified.
func (a *Adapter) ToPencil(data *ndarray.Array) (*ndarray.Array, error) {
	return a.transpose("to-pencil", data, a.natural, a.pencil, a.toPencil)
}

// FromPencil transposes pencil data back to the natural layout. It is the
// inverse of ToPencil and has the same contract with the roles of the two
// blocks swapped.
func (a *Adapter) FromPencil(data *ndarray.Array) (*ndarray.Array, error) {
	return a.transpose("from-pencil", data, a.pencil, a.natural, a.toNat)
}

func (a *Adapter) transpose(op string, data *ndarray.Array, src, dst decomp.Block, fn decomp.TransposeFunc) (*ndarray.Array, error) {
	if err := a.checkInput(data, src); err != nil {
		return nil, inputError(op, err)
	}
	nc, hasAxis, _ := a.reshaper.Components(data)

	out, err := ndarray.NewVolume(data.DType(), dst.Size, nc)
	if err != nil {
		return nil, inputError(op, err)
	}
	// One collective per component, in ascending order on every process.
	for c := range nc {
		in, err := a.reshaper.ToVolume(data, c)
		if err != nil {
			return nil, inputError(op, err)
		}
		slot, err := out.Component(c)
		if err != nil {
			return nil, inputError(op, err)
		}
		if err := fn(in, slot); err != nil {
			return nil, &Error{Op: op, Kind: ErrCollective, Err: errors.WithMessagef(err, "component %d of %d", c, nc)}
		}
	}

	res, err := a.reshaper.FromVolume(out, hasAxis)
	if err != nil {
		return nil, inputError(op, err)
	}
	a.logger.Debug("transposed",
		"op", op, "axis", a.axis.String(), "dtype", data.DType().String(),
		"components", nc, "in", data.Shape(), "out", res.Shape())
	return res, nil
}

func (a *Adapter) checkInput(data *ndarray.Array, src decomp.Block) error {
	if data == nil {
		return errors.New("array is nil")
	}
	if d := data.DType(); d.IsComplex() || !d.Valid() {
		return errors.Wrapf(ndarray.ErrDType, "%s data not supported, only real data can be transposed", d)
	}
	if data.Order() != ndarray.ColumnMajor {
		return errors.Wrapf(ndarray.ErrOrder, "array is %s, only column-major data can be transposed", data.Order())
	}
	if _, _, err := a.reshaper.Components(data); err != nil {
		return err
	}
	shape := data.Shape()
	for i := range a.dim {
		if shape[i] != src.Size[i] {
			return errors.Wrapf(ndarray.ErrShape, "leading extents %v do not match block %v",
				shape[:a.dim], src.Size[:a.dim])
		}
	}
	return nil
}
