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
	"fmt"
	"time"

	"github.com/ajroetker/go-pencil/decomp"
	"github.com/ajroetker/go-pencil/ndarray"
	"github.com/pkg/errors"
)

var _ decomp.Partition = (*Partition)(nil)

// Partition is the view of a World from one rank.
type Partition struct {
	world *World
	rank  int
}

// Rank returns the rank this partition belongs to.
func (p *Partition) Rank() int { return p.rank }

// Indexing reports the bound convention chosen with WithIndexing.
func (p *Partition) Indexing() decomp.Indexing { return p.world.opts.indexing }

// Natural returns this rank's natural block.
func (p *Partition) Natural() decomp.Block { return p.export(p.world.natural[p.rank]) }

// XPencil returns this rank's X pencil block.
func (p *Partition) XPencil() decomp.Block { return p.export(p.world.pencils[decomp.X][p.rank]) }

// YPencil returns this rank's Y pencil block.
func (p *Partition) YPencil() decomp.Block { return p.export(p.world.pencils[decomp.Y][p.rank]) }

// ZPencil returns this rank's Z pencil block.
func (p *Partition) ZPencil() decomp.Block { return p.export(p.world.pencils[decomp.Z][p.rank]) }

func (p *Partition) TransposeNaturalToX(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.X, toPencil: true}, in, out)
}

func (p *Partition) TransposeNaturalToY(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.Y, toPencil: true}, in, out)
}

func (p *Partition) TransposeNaturalToZ(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.Z, toPencil: true}, in, out)
}

func (p *Partition) TransposeXToNatural(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.X}, in, out)
}

func (p *Partition) TransposeYToNatural(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.Y}, in, out)
}

func (p *Partition) TransposeZToNatural(in, out *ndarray.Volume) error {
	return p.transpose(op{axis: decomp.Z}, in, out)
}

func (p *Partition) export(b decomp.Block) decomp.Block {
	off := p.Indexing().Offset()
	for i := range 3 {
		b.Lo[i] += off
		b.Hi[i] += off
	}
	return b
}

// op names one directional transpose.
type op struct {
	axis     decomp.Axis
	toPencil bool
}

func (o op) String() string {
	if o.toPencil {
		return fmt.Sprintf("natural-to-%s", o.axis)
	}
	return fmt.Sprintf("%s-to-natural", o.axis)
}

// message carries the cells of box from one rank to another for collective
// number seq. payload is nil when the two blocks do not overlap.
type message struct {
	op      op
	seq     uint64
	box     decomp.Block
	payload any
}

func (p *Partition) transpose(o op, in, out *ndarray.Volume) error {
	w := p.world
	src, dst := w.natural, w.pencils[o.axis]
	if !o.toPencil {
		src, dst = dst, src
	}
	mine, target := src[p.rank], dst[p.rank]

	if err := checkVolume(in, mine, "input"); err != nil {
		return errors.WithMessagef(err, "%s", o)
	}
	if err := checkVolume(out, target, "output"); err != nil {
		return errors.WithMessagef(err, "%s", o)
	}
	if in.DType() != out.DType() {
		return errors.Wrapf(ErrVolume, "%s: input is %s, output is %s", o, in.DType(), out.DType())
	}
	k, ok := kernelsFor(in.DType())
	if !ok {
		return errors.Wrapf(ErrVolume, "%s: unsupported element type %s", o, in.DType())
	}

	w.mu.Lock()
	abort, aborted := w.abort, w.aborted
	w.mu.Unlock()
	if aborted {
		return errors.Wrapf(ErrAborted, "%s on rank %d", o, p.rank)
	}

	state := &w.ranks[p.rank]
	seq := state.seq
	state.seq++
	start := time.Now()

	sent := 0
	for q := range w.Size() {
		msg := message{op: o, seq: seq}
		if box, ok := mine.Intersect(dst[q]); ok {
			msg.box = box
			msg.payload = k.pack(in, offset(box, mine), box.Size, w.pool)
			sent += box.Len()
		}
		select {
		case w.mail[p.rank][q] <- msg:
		case <-abort:
			return errors.Wrapf(ErrAborted, "%s on rank %d: sending to rank %d", o, p.rank, q)
		}
	}

	for q := range w.Size() {
		var msg message
		select {
		case msg = <-w.mail[q][p.rank]:
		case <-abort:
			return errors.Wrapf(ErrAborted, "%s on rank %d: receiving from rank %d", o, p.rank, q)
		}
		if msg.op != o || msg.seq != seq {
			return errors.Wrapf(ErrMismatch, "rank %d issued %s #%d, rank %d issued %s #%d",
				p.rank, o, seq, q, msg.op, msg.seq)
		}
		if msg.payload == nil {
			continue
		}
		if err := k.unpack(out, offset(msg.box, target), msg.box.Size, msg.payload, w.pool); err != nil {
			return errors.WithMessagef(err, "%s on rank %d from rank %d", o, p.rank, q)
		}
	}

	bytes := sent * in.DType().Size()
	elapsed := time.Since(start)
	w.opts.metrics.observe(o.String(), bytes, elapsed)
	w.opts.logger.Debug("collective",
		"rank", p.rank, "op", o.String(), "seq", seq, "bytes", bytes, "elapsed", elapsed)
	return nil
}

func checkVolume(v *ndarray.Volume, b decomp.Block, what string) error {
	if v == nil {
		return errors.Wrapf(ErrVolume, "%s volume is nil", what)
	}
	if v.Components() != 1 {
		return errors.Wrapf(ErrVolume, "%s volume has %d components, want 1", what, v.Components())
	}
	if v.Shape() != b.Size {
		return errors.Wrapf(ErrVolume, "%s volume is %v, block is %v", what, v.Shape(), b.Size)
	}
	return nil
}

// offset returns the position of box inside block.
func offset(box, block decomp.Block) [3]int {
	return [3]int{box.Lo[0] - block.Lo[0], box.Lo[1] - block.Lo[1], box.Lo[2] - block.Lo[2]}
}
