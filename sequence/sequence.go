/*
Package sequence lays the encoded code of every step of a student into
fixed-size blocks, so that every step offers the same number of rows to
attend over.
*/
package sequence

import (
	"fmt"

	"github.com/pbanos/sapling/autograd"
)

/*
Grid holds the assembled code of a batch: Grid[b][t] is the block of MaxLen
rows of the t-th step of the b-th student of the batch.
*/
type Grid [][][]*autograd.Vec

/*
Assembler lays blocks of encoded rows into MaxLen rows of length Dim.
*/
type Assembler struct {
	MaxLen int
	Dim    int
}

/*
Steps takes the encoded rows of every step of a student and returns seqlen
blocks of exactly MaxLen rows each.

A step with k < MaxLen rows gets MaxLen-k zero rows followed by its k rows
in order. A step with k >= MaxLen rows keeps its first MaxLen rows. Blocks
for steps past the last one given are all zero. An error is returned if
there are more steps than seqlen or a row does not have length Dim.
*/
func (a *Assembler) Steps(blocks [][]*autograd.Vec, seqlen int) ([][]*autograd.Vec, error) {
	if len(blocks) > seqlen {
		return nil, fmt.Errorf("assembling %d steps into a sequence of length %d", len(blocks), seqlen)
	}
	result := make([][]*autograd.Vec, seqlen)
	for t := range result {
		var rows []*autograd.Vec
		if t < len(blocks) {
			rows = blocks[t]
		}
		block, err := a.block(rows)
		if err != nil {
			return nil, fmt.Errorf("step %d: %v", t, err)
		}
		result[t] = block
	}
	return result, nil
}

func (a *Assembler) block(rows []*autograd.Vec) ([]*autograd.Vec, error) {
	for i, r := range rows {
		if r.Len() != a.Dim {
			return nil, fmt.Errorf("row %d has length %d, expected %d", i, r.Len(), a.Dim)
		}
	}
	if len(rows) >= a.MaxLen {
		block := make([]*autograd.Vec, a.MaxLen)
		copy(block, rows)
		return block, nil
	}
	block := make([]*autograd.Vec, 0, a.MaxLen)
	for i := len(rows); i < a.MaxLen; i++ {
		block = append(block, autograd.Zeros(a.Dim))
	}
	return append(block, rows...), nil
}

/*
Batch assembles the steps of every student of a batch into a Grid, one
student per row.
*/
func (a *Assembler) Batch(students [][][]*autograd.Vec, seqlen int) (Grid, error) {
	grid := make(Grid, len(students))
	for b, blocks := range students {
		steps, err := a.Steps(blocks, seqlen)
		if err != nil {
			return nil, fmt.Errorf("student %d: %v", b, err)
		}
		grid[b] = steps
	}
	return grid, nil
}
