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
	"errors"
	"fmt"
	"testing"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// cellValue encodes a zero-based global index so that any misplaced cell is
// detected.
func cellValue(i, j, k int) float64 {
	return float64(i + 1000*j + 1000000*k)
}

// fillBlock returns a volume holding cellValue over a zero-based block.
func fillBlock(b decomp.Block) *ndarray.Volume {
	v, _ := ndarray.NewVolume(ndarray.Float64, b.Size, 1)
	vals, _ := ndarray.VolumeValues[float64](v)
	n := 0
	for k := b.Lo[2]; k <= b.Hi[2]; k++ {
		for j := b.Lo[1]; j <= b.Hi[1]; j++ {
			for i := b.Lo[0]; i <= b.Hi[0]; i++ {
				vals[n] = cellValue(i, j, k)
				n++
			}
		}
	}
	return v
}

// checkBlock verifies that v holds cellValue over a zero-based block.
func checkBlock(v *ndarray.Volume, b decomp.Block) error {
	vals, err := ndarray.VolumeValues[float64](v)
	if err != nil {
		return err
	}
	n := 0
	for k := b.Lo[2]; k <= b.Hi[2]; k++ {
		for j := b.Lo[1]; j <= b.Hi[1]; j++ {
			for i := b.Lo[0]; i <= b.Hi[0]; i++ {
				if want := cellValue(i, j, k); vals[n] != want {
					return fmt.Errorf("cell (%d,%d,%d) = %v, want %v", i, j, k, vals[n], want)
				}
				n++
			}
		}
	}
	return nil
}

func TestSplit(t *testing.T) {
	tests := []struct {
		n, p     int
		los, szs []int
	}{
		{8, 2, []int{0, 4}, []int{4, 4}},
		{10, 3, []int{0, 4, 7}, []int{4, 3, 3}},
		{5, 5, []int{0, 1, 2, 3, 4}, []int{1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		var los, szs []int
		for i := range tt.p {
			lo, sz := split(tt.n, tt.p, i)
			los = append(los, lo)
			szs = append(szs, sz)
		}
		if diff := cmp.Diff(tt.los, los); diff != "" {
			t.Errorf("split(%d, %d) lo mismatch (-want +got):\n%s", tt.n, tt.p, diff)
		}
		if diff := cmp.Diff(tt.szs, szs); diff != "" {
			t.Errorf("split(%d, %d) size mismatch (-want +got):\n%s", tt.n, tt.p, diff)
		}
	}
}

func TestPencilGrid(t *testing.T) {
	tests := []struct {
		global, procs [3]int
		axis          decomp.Axis
		want          [3]int
	}{
		{[3]int{100, 100, 100}, [3]int{2, 3, 4}, decomp.X, [3]int{1, 6, 4}},
		{[3]int{100, 100, 100}, [3]int{2, 3, 4}, decomp.Y, [3]int{2, 1, 12}},
		{[3]int{100, 100, 100}, [3]int{2, 3, 4}, decomp.Z, [3]int{8, 3, 1}},
		{[3]int{8, 8, 1}, [3]int{2, 2, 1}, decomp.Y, [3]int{4, 1, 1}},
		{[3]int{8, 8, 1}, [3]int{2, 2, 1}, decomp.X, [3]int{1, 4, 1}},
	}
	for _, tt := range tests {
		if got := pencilGrid(tt.global, tt.procs, tt.axis); got != tt.want {
			t.Errorf("pencilGrid(%v, %v, %s) = %v, want %v", tt.global, tt.procs, tt.axis, got, tt.want)
		}
	}
}

func TestBlocksTileGrid(t *testing.T) {
	global := [3]int{7, 5, 6}
	w, err := NewWorld(global, [3]int{2, 2, 3})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	defer w.Close()

	layouts := map[string][]decomp.Block{
		"natural": w.natural,
		"x":       w.pencils[decomp.X],
		"y":       w.pencils[decomp.Y],
		"z":       w.pencils[decomp.Z],
	}
	for name, bs := range layouts {
		t.Run(name, func(t *testing.T) {
			if len(bs) != w.Size() {
				t.Fatalf("%d blocks for %d ranks", len(bs), w.Size())
			}
			hits := make([]int, global[0]*global[1]*global[2])
			for _, b := range bs {
				if err := b.Validate(); err != nil {
					t.Errorf("block %v: %v", b, err)
				}
				for k := b.Lo[2]; k <= b.Hi[2]; k++ {
					for j := b.Lo[1]; j <= b.Hi[1]; j++ {
						for i := b.Lo[0]; i <= b.Hi[0]; i++ {
							hits[(k*global[1]+j)*global[0]+i]++
						}
					}
				}
			}
			for n, h := range hits {
				if h != 1 {
					t.Fatalf("cell %d owned %d times", n, h)
				}
			}
		})
	}
	for a := range 3 {
		for r, b := range w.pencils[a] {
			if b.Size[a] != global[a] {
				t.Errorf("rank %d %s pencil spans %d of %d cells", r, decomp.Axis(a), b.Size[a], global[a])
			}
		}
	}
}

func TestNewWorldRejects(t *testing.T) {
	tests := []struct {
		name          string
		global, procs [3]int
	}{
		{"zero extent", [3]int{0, 4, 4}, [3]int{1, 1, 1}},
		{"zero procs", [3]int{4, 4, 4}, [3]int{1, 0, 1}},
		{"natural too fine", [3]int{2, 4, 4}, [3]int{3, 1, 1}},
		{"pencil too fine", [3]int{2, 2, 2}, [3]int{2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorld(tt.global, tt.procs); !errors.Is(err, ErrConfig) {
				t.Errorf("NewWorld(%v, %v) error = %v, want ErrConfig", tt.global, tt.procs, err)
			}
		})
	}
}

func TestIndexing(t *testing.T) {
	for _, ix := range []decomp.Indexing{decomp.ZeroBased, decomp.OneBased} {
		w, err := NewWorld([3]int{4, 6, 2}, [3]int{2, 1, 1}, WithIndexing(ix))
		if err != nil {
			t.Fatalf("NewWorld: %v", err)
		}
		p, _ := w.Partition(1)
		if p.Indexing() != ix {
			t.Errorf("Indexing() = %s, want %s", p.Indexing(), ix)
		}
		got := p.Natural().ToZeroBased(ix)
		want := decomp.Block{Size: [3]int{2, 6, 2}, Lo: [3]int{2, 0, 0}, Hi: [3]int{3, 5, 1}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s natural block mismatch (-want +got):\n%s", ix, diff)
		}
		if x := p.XPencil(); x.Size != [3]int{4, 3, 2} {
			t.Errorf("%s X pencil size = %v, want [4 3 2]", ix, x.Size)
		}
		w.Close()
	}
	w, _ := NewWorld([3]int{2, 2, 2}, [3]int{1, 1, 1})
	if _, err := w.Partition(1); !errors.Is(err, ErrRank) {
		t.Errorf("Partition(1) error = %v, want ErrRank", err)
	}
}

func TestTransposeRoundTrip(t *testing.T) {
	worlds := []struct {
		global, procs [3]int
		workers       int
	}{
		{[3]int{4, 4, 4}, [3]int{1, 1, 1}, 0},
		{[3]int{8, 6, 4}, [3]int{2, 1, 1}, 0},
		{[3]int{9, 10, 7}, [3]int{2, 2, 1}, 2},
		{[3]int{6, 7, 9}, [3]int{2, 1, 3}, 0},
		{[3]int{96, 80, 3}, [3]int{1, 2, 1}, 4},
		{[3]int{12, 10, 1}, [3]int{3, 2, 1}, 0},
	}
	for _, tw := range worlds {
		for _, axis := range []decomp.Axis{decomp.X, decomp.Y, decomp.Z} {
			name := fmt.Sprintf("%v/%v/%s", tw.global, tw.procs, axis)
			t.Run(name, func(t *testing.T) {
				w, err := NewWorld(tw.global, tw.procs, WithWorkers(tw.workers), WithIndexing(decomp.ZeroBased))
				if err != nil {
					t.Fatalf("NewWorld: %v", err)
				}
				defer w.Close()

				err = w.Run(func(rank int, p *Partition) error {
					nat := p.Natural()
					pen, _ := decomp.Pencil(p, axis)
					to, _ := decomp.ToPencil(p, axis)
					from, _ := decomp.FromPencil(p, axis)

					in := fillBlock(nat)
					mid, _ := ndarray.NewVolume(ndarray.Float64, pen.Size, 1)
					if err := to(in, mid); err != nil {
						return err
					}
					if err := checkBlock(mid, pen); err != nil {
						return fmt.Errorf("rank %d pencil: %w", rank, err)
					}
					back, _ := ndarray.NewVolume(ndarray.Float64, nat.Size, 1)
					if err := from(mid, back); err != nil {
						return err
					}
					if err := checkBlock(back, nat); err != nil {
						return fmt.Errorf("rank %d natural: %w", rank, err)
					}
					return nil
				})
				if err != nil {
					t.Fatal(err)
				}
			})
		}
	}
}

func TestTransposeInt32(t *testing.T) {
	w, _ := NewWorld([3]int{3, 4, 2}, [3]int{1, 2, 2})
	defer w.Close()
	err := w.Run(func(rank int, p *Partition) error {
		nat := p.Natural().ToZeroBased(p.Indexing())
		pen := p.ZPencil().ToZeroBased(p.Indexing())
		in, _ := ndarray.NewVolume(ndarray.Int32, nat.Size, 1)
		vals, _ := ndarray.VolumeValues[int32](in)
		for n := range vals {
			vals[n] = int32(rank*100 + n)
		}
		mid, _ := ndarray.NewVolume(ndarray.Int32, pen.Size, 1)
		if err := p.TransposeNaturalToZ(in, mid); err != nil {
			return err
		}
		out, _ := ndarray.NewVolume(ndarray.Int32, nat.Size, 1)
		if err := p.TransposeZToNatural(mid, out); err != nil {
			return err
		}
		got, _ := ndarray.VolumeValues[int32](out)
		if diff := cmp.Diff(vals, got); diff != "" {
			return fmt.Errorf("rank %d round trip mismatch (-want +got):\n%s", rank, diff)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTransposeRejectsVolumes(t *testing.T) {
	w, _ := NewWorld([3]int{4, 4, 4}, [3]int{1, 1, 1})
	defer w.Close()
	p, _ := w.Partition(0)

	good, _ := ndarray.NewVolume(ndarray.Float64, [3]int{4, 4, 4}, 1)
	wrongShape, _ := ndarray.NewVolume(ndarray.Float64, [3]int{4, 4, 2}, 1)
	twoComp, _ := ndarray.NewVolume(ndarray.Float64, [3]int{4, 4, 4}, 2)
	wrongType, _ := ndarray.NewVolume(ndarray.Float32, [3]int{4, 4, 4}, 1)

	tests := []struct {
		name    string
		in, out *ndarray.Volume
	}{
		{"nil input", nil, good},
		{"input shape", wrongShape, good},
		{"output shape", good, wrongShape},
		{"components", twoComp, good},
		{"dtype", good, wrongType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.TransposeNaturalToX(tt.in, tt.out); !errors.Is(err, ErrVolume) {
				t.Errorf("error = %v, want ErrVolume", err)
			}
		})
	}
	// Rejected calls do not consume a collective sequence number.
	if err := p.TransposeNaturalToX(good, good); err != nil {
		t.Errorf("valid transpose after rejections: %v", err)
	}
}

func TestMismatchedCollective(t *testing.T) {
	w, _ := NewWorld([3]int{4, 4, 4}, [3]int{2, 1, 1}, WithIndexing(decomp.ZeroBased))
	defer w.Close()

	err := w.Run(func(rank int, p *Partition) error {
		nat := p.Natural()
		in, _ := ndarray.NewVolume(ndarray.Float64, nat.Size, 1)
		if rank == 0 {
			out, _ := ndarray.NewVolume(ndarray.Float64, p.XPencil().Size, 1)
			return p.TransposeNaturalToX(in, out)
		}
		out, _ := ndarray.NewVolume(ndarray.Float64, p.YPencil().Size, 1)
		return p.TransposeNaturalToY(in, out)
	})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("Run error = %v, want ErrMismatch", err)
	}

	p, _ := w.Partition(0)
	in, _ := ndarray.NewVolume(ndarray.Float64, p.Natural().Size, 1)
	out, _ := ndarray.NewVolume(ndarray.Float64, p.XPencil().Size, 1)
	if err := p.TransposeNaturalToX(in, out); !errors.Is(err, ErrAborted) {
		t.Errorf("transpose on aborted world error = %v, want ErrAborted", err)
	}
}

func TestRunAbortsBlockedRanks(t *testing.T) {
	w, _ := NewWorld([3]int{4, 4, 4}, [3]int{2, 1, 1})
	defer w.Close()

	boom := errors.New("boom")
	err := w.Run(func(rank int, p *Partition) error {
		if rank == 1 {
			return boom
		}
		nat := p.Natural()
		in, _ := ndarray.NewVolume(ndarray.Float64, nat.Size, 1)
		out, _ := ndarray.NewVolume(ndarray.Float64, p.XPencil().Size, 1)
		if err := p.TransposeNaturalToX(in, out); !errors.Is(err, ErrAborted) {
			return fmt.Errorf("blocked rank error = %v, want ErrAborted", err)
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want boom", err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	w, _ := NewWorld([3]int{4, 4, 2}, [3]int{2, 1, 1}, WithMetrics(m), WithIndexing(decomp.ZeroBased))
	defer w.Close()

	err := w.Run(func(rank int, p *Partition) error {
		in := fillBlock(p.Natural())
		out, _ := ndarray.NewVolume(ndarray.Float64, p.YPencil().Size, 1)
		return p.TransposeNaturalToY(in, out)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("natural-to-y")); got != 2 {
		t.Errorf("calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.bytes.WithLabelValues("natural-to-y")); got != 4*4*2*8 {
		t.Errorf("bytes = %v, want %d", got, 4*4*2*8)
	}
	if n := testutil.CollectAndCount(m.seconds); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}
