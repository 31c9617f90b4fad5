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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/ajroetker/go-pencil/decomp/local"
	"github.com/ajroetker/go-pencil/internal/config"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/ajroetker/go-pencil/pencil"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

// errMismatch reports a value that did not land where it should.
var errMismatch = errors.New("pencilbench: value mismatch")

// element is the set of element types the adapter accepts.
type element interface {
	int32 | int64 | float32 | float64
}

// exactRange keeps synthetic values exactly representable as float32.
const exactRange = 1 << 24

type report struct {
	cfg     config.Bench
	ranks   int
	elapsed []time.Duration
}

func (r *report) print(w io.Writer) {
	c := r.cfg
	fmt.Fprintf(w, "%d ranks, global %v, procs %v, %s pencils, %s, %d components\n",
		r.ranks, c.Global, c.Procs, c.Axis, c.DType, c.Components)
	mean := lo.Sum(r.elapsed) / time.Duration(len(r.elapsed))
	fmt.Fprintf(w, "%d round trips verified: min %s, mean %s, max %s\n",
		len(r.elapsed), lo.Min(r.elapsed), mean, lo.Max(r.elapsed))
}

// runBench builds the world described by cfg and round-trips a synthetic
// field cfg.Iterations times. cfg must be valid.
func runBench(ctx context.Context, cfg config.Bench, logger *slog.Logger) (*report, error) {
	global, _ := cfg.GlobalGrid()
	procs, _ := cfg.ProcGrid()
	axis, _ := cfg.PencilAxis()
	ix, _ := cfg.IndexingConvention()
	dtype, err := cfg.ElementType()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	iterSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pencilbench_round_trip_seconds",
		Help:    "Wall time of one round trip over all ranks.",
		Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
	})
	reg.MustRegister(iterSeconds)

	w, err := local.NewWorld(global, procs,
		local.WithIndexing(ix),
		local.WithWorkers(cfg.Workers),
		local.WithMetrics(local.NewMetrics(reg)),
		local.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer w.Close()

	adapters := make([]*pencil.Adapter, w.Size())
	for r := range adapters {
		p, _ := w.Partition(r)
		a, err := pencil.New(p, axis, cfg.Dim, pencil.WithLogger(logger.With("rank", r)))
		if err != nil {
			return nil, err
		}
		adapters[r] = a
	}

	var roundTrip func(*pencil.Adapter) error
	switch dtype {
	case ndarray.Int32:
		roundTrip = checker[int32]{global, cfg.Components}.roundTrip
	case ndarray.Int64:
		roundTrip = checker[int64]{global, cfg.Components}.roundTrip
	case ndarray.Float32:
		roundTrip = checker[float32]{global, cfg.Components}.roundTrip
	default:
		roundTrip = checker[float64]{global, cfg.Components}.roundTrip
	}

	logger.Info("starting", "ranks", w.Size(), "global", global, "procs", procs,
		"axis", axis.String(), "dtype", dtype.String(), "components", cfg.Components)
	rep := &report{cfg: cfg, ranks: w.Size()}
	for i := range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		err := w.Run(func(rank int, _ *local.Partition) error {
			return roundTrip(adapters[rank])
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "iteration %d", i)
		}
		elapsed := time.Since(start)
		iterSeconds.Observe(elapsed.Seconds())
		rep.elapsed = append(rep.elapsed, elapsed)
		logger.Info("round trip", "iteration", i, "elapsed", elapsed)
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return nil, errors.Wrapf(err, "writing metrics to %s", cfg.MetricsFile)
		}
	}
	return rep, nil
}

// checker fills and verifies the synthetic field of one element type.
type checker[T element] struct {
	global     [3]int
	components int
}

func (c checker[T]) roundTrip(a *pencil.Adapter) error {
	nlo, _ := a.NaturalBounds()
	in := c.field(nlo, a.NaturalSize())
	px, err := a.ToPencil(in)
	if err != nil {
		return err
	}
	plo, _ := a.FullPencilBounds()
	if err := c.compare("pencil", c.field(plo, a.FullPencilSize()), px); err != nil {
		return err
	}
	back, err := a.FromPencil(px)
	if err != nil {
		return err
	}
	return c.compare("natural", in, back)
}

// value is the synthetic value at a zero-based global cell and component.
func (c checker[T]) value(i, j, k, comp int) T {
	n := i + c.global[0]*(j+c.global[1]*(k+c.global[2]*comp))
	return T(n % exactRange)
}

// field returns the column-major block [start, start+size) of the synthetic
// field.
func (c checker[T]) field(start, size []int) *ndarray.Array {
	shape := slices.Clone(size)
	nc := 1
	if c.components > 0 {
		shape = append(shape, c.components)
		nc = c.components
	}
	base, ext := [3]int{}, [3]int{1, 1, 1}
	copy(base[:], start)
	copy(ext[:], size)

	data := make([]T, 0, ndarray.NumElements(shape))
	for comp := range nc {
		for k := range ext[2] {
			for j := range ext[1] {
				for i := range ext[0] {
					data = append(data, c.value(base[0]+i, base[1]+j, base[2]+k, comp))
				}
			}
		}
	}
	a, _ := ndarray.FromSlice(data, ndarray.ColumnMajor, shape...)
	return a
}

func (c checker[T]) compare(layout string, want, got *ndarray.Array) error {
	if !slices.Equal(want.Shape(), got.Shape()) {
		return errors.Wrapf(errMismatch, "%s shape %v, want %v", layout, got.Shape(), want.Shape())
	}
	wv, err := ndarray.Values[T](want)
	if err != nil {
		return err
	}
	gv, err := ndarray.Values[T](got)
	if err != nil {
		return err
	}
	for i := range wv {
		if wv[i] != gv[i] {
			return errors.Wrapf(errMismatch, "%s element %d is %v, want %v", layout, i, gv[i], wv[i])
		}
	}
	return nil
}
