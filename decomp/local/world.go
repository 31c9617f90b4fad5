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
	"log/slog"
	"sync"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/internal/workerpool"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

var (
	ErrConfig   = errors.New("local: invalid world configuration")
	ErrRank     = errors.New("local: rank out of range")
	ErrVolume   = errors.New("local: volume does not match block")
	ErrMismatch = errors.New("local: mismatched collective")
	ErrAborted  = errors.New("local: world aborted")
)

// Option configures a World.
type Option func(*options)

type options struct {
	indexing decomp.Indexing
	workers  int
	metrics  *Metrics
	logger   *slog.Logger
}

// WithIndexing sets the bound convention reported by the partitions. The
// default is decomp.OneBased.
func WithIndexing(ix decomp.Indexing) Option {
	return func(o *options) { o.indexing = ix }
}

// WithWorkers sets the number of goroutines shared by all ranks for packing
// and unpacking sub-boxes. Zero (the default) packs on the calling rank.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMetrics records collective counts, bytes and latency.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger used for per-collective debug records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// rankState is written only by its own rank; padding keeps neighbouring
// ranks off the same cache line.
type rankState struct {
	seq uint64
	_   cpu.CacheLinePad
}

// World is a fixed group of ranks sharing one decomposition.
type World struct {
	global  [3]int
	procs   [3]int
	natural []decomp.Block    // zero-based, indexed by rank
	pencils [3][]decomp.Block // zero-based, indexed by axis then rank
	mail    [][]chan message  // mail[src][dst]
	ranks   []rankState
	parts   []*Partition
	pool    *workerpool.Pool
	opts    options

	mu      sync.Mutex
	abort   chan struct{}
	aborted bool
}

// NewWorld decomposes a global grid over a procs[0]×procs[1]×procs[2]
// process grid.
func NewWorld(global, procs [3]int, opts ...Option) (*World, error) {
	o := options{indexing: decomp.OneBased}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	for i := range 3 {
		if global[i] < 1 || procs[i] < 1 {
			return nil, errors.Wrapf(ErrConfig, "global %v and procs %v must be positive", global, procs)
		}
	}

	w := &World{global: global, procs: procs, opts: o, abort: make(chan struct{})}
	grids := [4][3]int{
		procs,
		pencilGrid(global, procs, decomp.X),
		pencilGrid(global, procs, decomp.Y),
		pencilGrid(global, procs, decomp.Z),
	}
	for _, g := range grids {
		for i := range 3 {
			if g[i] > global[i] {
				return nil, errors.Wrapf(ErrConfig, "process grid %v leaves empty blocks on global grid %v", g, global)
			}
		}
	}
	w.natural = blocks(global, grids[0])
	for a := range 3 {
		w.pencils[a] = blocks(global, grids[a+1])
	}

	n := w.Size()
	w.mail = make([][]chan message, n)
	for src := range n {
		w.mail[src] = make([]chan message, n)
		for dst := range n {
			w.mail[src][dst] = make(chan message, 1)
		}
	}
	w.ranks = make([]rankState, n)
	w.parts = make([]*Partition, n)
	for r := range n {
		w.parts[r] = &Partition{world: w, rank: r}
	}
	if o.workers > 0 {
		w.pool = workerpool.New(o.workers)
	}
	return w, nil
}

// Size returns the number of ranks.
func (w *World) Size() int { return w.procs[0] * w.procs[1] * w.procs[2] }

// Global returns the global grid extents.
func (w *World) Global() [3]int { return w.global }

// Procs returns the natural process grid.
func (w *World) Procs() [3]int { return w.procs }

// Partition returns the partition of one rank.
func (w *World) Partition(rank int) (*Partition, error) {
	if rank < 0 || rank >= w.Size() {
		return nil, errors.Wrapf(ErrRank, "rank %d of %d", rank, w.Size())
	}
	return w.parts[rank], nil
}

// Run calls fn concurrently for every rank and waits for all of them. It
// returns the first error. When any rank fails, ranks blocked in a
// collective return ErrAborted and the world cannot be used again.
func (w *World) Run(fn func(rank int, p *Partition) error) error {
	abort := w.abortChan()
	var (
		g     errgroup.Group
		once  sync.Once
		first error
	)
	for r, p := range w.parts {
		g.Go(func() error {
			err := fn(r, p)
			if err != nil {
				// first is set before the other ranks see the abort.
				once.Do(func() {
					first = err
					w.fail(abort)
				})
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return first
	}
	return nil
}

// Close releases the packing workers.
func (w *World) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *World) abortChan() chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.abort
}

func (w *World) fail(abort chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.aborted {
		w.aborted = true
		close(abort)
	}
}

// pencilGrid folds the process count of axis a into the next axis, or into
// the axis after it when the next axis has too few cells.
func pencilGrid(global, procs [3]int, a decomp.Axis) [3]int {
	g := procs
	next, other := (int(a)+1)%3, (int(a)+2)%3
	if g[next]*g[a] > global[next] && g[other]*g[a] <= global[other] {
		next = other
	}
	g[next] *= g[a]
	g[a] = 1
	return g
}

// blocks returns the zero-based block of every rank for a process grid.
func blocks(global, grid [3]int) []decomp.Block {
	n := grid[0] * grid[1] * grid[2]
	out := make([]decomp.Block, n)
	for r := range n {
		coord := [3]int{r % grid[0], (r / grid[0]) % grid[1], r / (grid[0] * grid[1])}
		var b decomp.Block
		for i := range 3 {
			b.Lo[i], b.Size[i] = split(global[i], grid[i], coord[i])
			b.Hi[i] = b.Lo[i] + b.Size[i] - 1
		}
		out[r] = b
	}
	return out
}

// split returns the start and length of part i of n cells split into p parts.
func split(n, p, i int) (lo, size int) {
	base, rem := n/p, n%p
	size = base
	if i < rem {
		size++
	}
	return i*base + min(i, rem), size
}
