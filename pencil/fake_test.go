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
	"fmt"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
)

// fakePartition is a single-process partition that records every call. Its
// transposes copy the input when the shapes agree.
type fakePartition struct {
	indexing decomp.Indexing
	natural  decomp.Block
	pencils  [3]decomp.Block
	fail     error

	queries    int
	transposes []string
}

var _ decomp.Partition = (*fakePartition)(nil)

// newFake returns a one-based fake whose blocks all cover a size grid.
func newFake(size [3]int) *fakePartition {
	b := decomp.Block{Size: size, Lo: [3]int{1, 1, 1}, Hi: size}
	return &fakePartition{indexing: decomp.OneBased, natural: b, pencils: [3]decomp.Block{b, b, b}}
}

func (f *fakePartition) Indexing() decomp.Indexing { f.queries++; return f.indexing }
func (f *fakePartition) Natural() decomp.Block     { f.queries++; return f.natural }
func (f *fakePartition) XPencil() decomp.Block     { f.queries++; return f.pencils[0] }
func (f *fakePartition) YPencil() decomp.Block     { f.queries++; return f.pencils[1] }
func (f *fakePartition) ZPencil() decomp.Block     { f.queries++; return f.pencils[2] }

func (f *fakePartition) TransposeNaturalToX(in, out *ndarray.Volume) error {
	return f.transpose("natural-to-x", in, out)
}

func (f *fakePartition) TransposeNaturalToY(in, out *ndarray.Volume) error {
	return f.transpose("natural-to-y", in, out)
}

func (f *fakePartition) TransposeNaturalToZ(in, out *ndarray.Volume) error {
	return f.transpose("natural-to-z", in, out)
}

func (f *fakePartition) TransposeXToNatural(in, out *ndarray.Volume) error {
	return f.transpose("x-to-natural", in, out)
}

func (f *fakePartition) TransposeYToNatural(in, out *ndarray.Volume) error {
	return f.transpose("y-to-natural", in, out)
}

func (f *fakePartition) TransposeZToNatural(in, out *ndarray.Volume) error {
	return f.transpose("z-to-natural", in, out)
}

func (f *fakePartition) transpose(op string, in, out *ndarray.Volume) error {
	f.transposes = append(f.transposes, op)
	if f.fail != nil {
		return f.fail
	}
	if in.Shape() != out.Shape() || in.DType() != out.DType() {
		return fmt.Errorf("fake %s: %v %s -> %v %s", op, in.Shape(), in.DType(), out.Shape(), out.DType())
	}
	switch src := in.Data().(type) {
	case []float64:
		copy(out.Data().([]float64), src)
	case []float32:
		copy(out.Data().([]float32), src)
	case []int32:
		copy(out.Data().([]int32), src)
	case []int64:
		copy(out.Data().([]int64), src)
	default:
		return fmt.Errorf("fake %s: unexpected %T", op, src)
	}
	return nil
}
