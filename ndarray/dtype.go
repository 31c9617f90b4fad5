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
	"fmt"

	"github.com/pkg/errors"
)

// Element is the constraint for values an Array can hold.
type Element interface {
	int32 | int64 | float32 | float64 | complex64 | complex128
}

// DType identifies the element type of an Array or Volume.
type DType int

const (
	InvalidDType DType = iota
	Int32
	Int64
	Float32
	Float64
	Complex64
	Complex128
)

var dtypeNames = [...]string{
	InvalidDType: "invalid",
	Int32:        "int32",
	Int64:        "int64",
	Float32:      "float32",
	Float64:      "float64",
	Complex64:    "complex64",
	Complex128:   "complex128",
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("DType(%d)", int(d))
	}
	return dtypeNames[d]
}

// ParseDType returns the DType named s, as printed by String.
func ParseDType(s string) (DType, error) {
	for d := Int32; d <= Complex128; d++ {
		if dtypeNames[d] == s {
			return d, nil
		}
	}
	return InvalidDType, errors.Wrapf(ErrDType, "unknown element type %q", s)
}

// IsComplex reports whether values of this type carry an imaginary part.
func (d DType) IsComplex() bool {
	return d == Complex64 || d == Complex128
}

// Size returns the size of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Int32, Float32:
		return 4
	case Int64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}

// Valid reports whether d is one of the known element types.
func (d DType) Valid() bool {
	return d > InvalidDType && d <= Complex128
}

// DTypeOf returns the DType for the Go type T.
func DTypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	}
	return InvalidDType
}

// makeSlice allocates a zeroed backing slice of n elements of type d.
func makeSlice(d DType, n int) any {
	switch d {
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case Complex64:
		return make([]complex64, n)
	case Complex128:
		return make([]complex128, n)
	}
	return nil
}

// subSlice returns data[lo:hi] for any supported backing slice.
func subSlice(data any, lo, hi int) any {
	switch s := data.(type) {
	case []int32:
		return s[lo:hi:hi]
	case []int64:
		return s[lo:hi:hi]
	case []float32:
		return s[lo:hi:hi]
	case []float64:
		return s[lo:hi:hi]
	case []complex64:
		return s[lo:hi:hi]
	case []complex128:
		return s[lo:hi:hi]
	}
	return nil
}
