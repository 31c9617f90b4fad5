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

import "github.com/pkg/errors"

var (
	ErrShape     = errors.New("ndarray: invalid shape")
	ErrOrder     = errors.New("ndarray: element order mismatch")
	ErrDType     = errors.New("ndarray: element type mismatch")
	ErrRank      = errors.New("ndarray: unsupported rank")
	ErrComponent = errors.New("ndarray: component index out of range")
)
