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

// Package config loads the settings of the pencilbench command.
package config

import (
	"io/fs"
	"strings"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are joined
// with "__", e.g. PENCIL_LOG__LEVEL=debug.
const EnvPrefix = "PENCIL_"

// ErrInvalid reports a configuration that cannot describe a run.
var ErrInvalid = errors.New("config: invalid")

// Log selects the logger of a run.
type Log struct {
	Level      string `koanf:"level"` // debug|info|warn|error
	JSON       bool   `koanf:"json"`
	File       string `koanf:"file"` // rotated by size when set
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

// Bench describes one pencilbench run.
type Bench struct {
	Global     []int  `koanf:"global"`
	Procs      []int  `koanf:"procs"`
	Axis       string `koanf:"axis"`
	Dim        int    `koanf:"dim"`
	Components int    `koanf:"components"` // 0: no component axis
	DType      string `koanf:"dtype"`
	Iterations int    `koanf:"iterations"`
	Workers    int    `koanf:"workers"`
	Indexing   string `koanf:"indexing"` // zero|one

	MetricsFile string `koanf:"metrics_file"`
	Log         Log    `koanf:"log"`
}

// Default returns the settings used when nothing is configured.
func Default() Bench {
	b := Bench{}
	applyDefaults(&b)
	return b
}

// Load merges the YAML file at path (if any) with PENCIL_ environment
// variables, fills defaults and validates the result. A missing file is
// not an error.
func Load(path string) (Bench, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Bench{}, errors.Wrapf(err, "config: loading %s", path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return Bench{}, errors.Wrap(err, "config: reading environment")
	}

	var b Bench
	if err := k.Unmarshal("", &b); err != nil {
		return Bench{}, errors.Wrap(err, "config: decoding")
	}
	applyDefaults(&b)
	if err := b.Validate(); err != nil {
		return Bench{}, err
	}
	return b, nil
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func applyDefaults(b *Bench) {
	if b.Dim == 0 {
		b.Dim = 3
	}
	if len(b.Global) == 0 {
		b.Global = []int{32, 32, 32}
		if b.Dim == 2 {
			b.Global = []int{64, 64}
		}
	}
	if len(b.Procs) == 0 {
		b.Procs = []int{2, 2, 1}
		if b.Dim == 2 {
			b.Procs = []int{2, 2}
		}
	}
	if b.Axis == "" {
		b.Axis = "x"
	}
	if b.DType == "" {
		b.DType = ndarray.Float64.String()
	}
	if b.Iterations == 0 {
		b.Iterations = 3
	}
	if b.Indexing == "" {
		b.Indexing = "one"
	}
	if b.Log.Level == "" {
		b.Log.Level = "info"
	}
	if b.Log.MaxSizeMB == 0 {
		b.Log.MaxSizeMB = 100
	}
}

// Validate checks that b describes a run.
func (b Bench) Validate() error {
	if b.Dim != 2 && b.Dim != 3 {
		return errors.Wrapf(ErrInvalid, "dim must be 2 or 3, got %d", b.Dim)
	}
	if _, err := b.GlobalGrid(); err != nil {
		return err
	}
	if _, err := b.ProcGrid(); err != nil {
		return err
	}
	axis, err := decomp.ParseAxis(b.Axis)
	if err != nil {
		return errors.Wrapf(ErrInvalid, "axis: %v", err)
	}
	if int(axis) >= b.Dim {
		return errors.Wrapf(ErrInvalid, "axis %s is not meaningful for %d-D data", axis, b.Dim)
	}
	if _, err := b.ElementType(); err != nil {
		return err
	}
	if b.Components < 0 {
		return errors.Wrapf(ErrInvalid, "components must not be negative, got %d", b.Components)
	}
	if b.Iterations < 1 {
		return errors.Wrapf(ErrInvalid, "iterations must be positive, got %d", b.Iterations)
	}
	if b.Workers < 0 {
		return errors.Wrapf(ErrInvalid, "workers must not be negative, got %d", b.Workers)
	}
	if _, err := b.IndexingConvention(); err != nil {
		return err
	}
	return nil
}

// GlobalGrid returns the global grid padded to three axes.
func (b Bench) GlobalGrid() ([3]int, error) {
	return b.grid("global", b.Global)
}

// ProcGrid returns the natural process grid padded to three axes.
func (b Bench) ProcGrid() ([3]int, error) {
	return b.grid("procs", b.Procs)
}

func (b Bench) grid(name string, v []int) ([3]int, error) {
	g := [3]int{1, 1, 1}
	if len(v) != b.Dim && !(b.Dim == 2 && len(v) == 3) {
		return g, errors.Wrapf(ErrInvalid, "%s %v must have %d entries", name, v, b.Dim)
	}
	copy(g[:], v)
	for _, n := range g {
		if n < 1 {
			return g, errors.Wrapf(ErrInvalid, "%s %v must be positive", name, v)
		}
	}
	if b.Dim == 2 && g[2] != 1 {
		return g, errors.Wrapf(ErrInvalid, "%s %v of 2-D data must have a unit z entry", name, v)
	}
	return g, nil
}

// PencilAxis returns the parsed pencil axis.
func (b Bench) PencilAxis() (decomp.Axis, error) {
	a, err := decomp.ParseAxis(b.Axis)
	if err != nil {
		return a, errors.Wrapf(ErrInvalid, "axis: %v", err)
	}
	return a, nil
}

// ElementType returns the parsed element type. Complex types are refused.
func (b Bench) ElementType() (ndarray.DType, error) {
	d, err := ndarray.ParseDType(b.DType)
	if err != nil {
		return d, errors.Wrapf(ErrInvalid, "dtype: %v", err)
	}
	if d.IsComplex() {
		return d, errors.Wrapf(ErrInvalid, "dtype %s: only real data can be transposed", d)
	}
	return d, nil
}

// IndexingConvention returns the bound convention of the in-process world.
func (b Bench) IndexingConvention() (decomp.Indexing, error) {
	switch strings.ToLower(b.Indexing) {
	case "zero", "0":
		return decomp.ZeroBased, nil
	case "one", "1":
		return decomp.OneBased, nil
	}
	return decomp.OneBased, errors.Wrapf(ErrInvalid, "indexing %q is not zero or one", b.Indexing)
}
