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

	"github.com/pkg/errors"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidConfiguration reports bad arguments to New. No adapter is
	// returned.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput reports an array that violates a transpose's
	// contract. The adapter stays usable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollective reports a failure of the partition's transpose. The
	// process group is out of step and cannot be repaired locally.
	ErrCollective = errors.New("collective transpose failed")
)

// Error describes a failed Adapter operation. It matches its Kind and its
// underlying cause under errors.Is.
type Error struct {
	Op   string // "new", "to-pencil" or "from-pencil"
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pencil: %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func configError(format string, args ...any) error {
	return &Error{Op: "new", Kind: ErrInvalidConfiguration, Err: errors.Errorf(format, args...)}
}

func inputError(op string, err error) error {
	return &Error{Op: op, Kind: ErrInvalidInput, Err: err}
}
