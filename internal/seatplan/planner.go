// Package seatplan derives the physical seat grid of a screening from the
// number of seats that must be sellable. It performs no I/O.
package seatplan

import (
	"errors"
	"math"
	"strings"
)

// ErrInvalidSeatCount is returned when fewer than one seat is requested.
var ErrInvalidSeatCount = errors.New("required seats must be at least 1")

// RoomHint is the natural shape of a room. VIPRows is informational: the
// planner recomputes VIP rows from the grid it finally chooses.
type RoomHint struct {
	Rows        int
	SeatsPerRow int
	VIPRows     []string
}

// DefaultHint is used for rooms missing from the hint table.
var DefaultHint = RoomHint{Rows: 6, SeatsPerRow: 10, VIPRows: []string{"E", "F"}}

// roomHints is keyed by lower-cased, trimmed room name.
var roomHints = map[string]RoomHint{
	"sala 1":    {Rows: 8, SeatsPerRow: 12, VIPRows: []string{"G", "H"}},
	"sala 2":    {Rows: 7, SeatsPerRow: 10, VIPRows: []string{"F", "G"}},
	"sala 3":    {Rows: 6, SeatsPerRow: 10, VIPRows: []string{"E", "F"}},
	"sala 4":    {Rows: 6, SeatsPerRow: 8, VIPRows: []string{"E", "F"}},
	"sala vip":  {Rows: 5, SeatsPerRow: 8, VIPRows: []string{"D", "E"}},
	"sala imax": {Rows: 10, SeatsPerRow: 16, VIPRows: []string{"H", "I", "J"}},
	"sala 4dx":  {Rows: 6, SeatsPerRow: 12, VIPRows: []string{"E", "F"}},
}

// HintFor returns the base hint for a room name.
func HintFor(roomName string) RoomHint {
	if h, ok := roomHints[strings.ToLower(strings.TrimSpace(roomName))]; ok {
		return h
	}
	return DefaultHint
}

// GridPlan is the resolved grid for one screening.
type GridPlan struct {
	Rows          int
	SeatsPerRow   int
	VIPRowLabels  []string
	RequiredSeats int
}

// Capacity is the number of generated cells, including disabled ones.
func (p GridPlan) Capacity() int { return p.Rows * p.SeatsPerRow }

// Surplus is the number of cells that will be disabled.
func (p GridPlan) Surplus() int { return p.Capacity() - p.RequiredSeats }

// Cell is one generated seat position.
type Cell struct {
	Row      string
	RowIndex int
	Number   int
	VIP      bool
	Disabled bool
}

// Cells walks the grid row-major. The first RequiredSeats cells are sellable
// and every cell after them is disabled. Disabled cells are never VIP.
func (p GridPlan) Cells() []Cell {
	vip := make(map[string]bool, len(p.VIPRowLabels))
	for _, l := range p.VIPRowLabels {
		vip[l] = true
	}
	cells := make([]Cell, 0, p.Capacity())
	k := 0
	for r := 0; r < p.Rows; r++ {
		label := RowLabel(r)
		for n := 1; n <= p.SeatsPerRow; n++ {
			disabled := k >= p.RequiredSeats
			cells = append(cells, Cell{
				Row:      label,
				RowIndex: r,
				Number:   n,
				VIP:      vip[label] && !disabled,
				Disabled: disabled,
			})
			k++
		}
	}
	return cells
}

// Plan picks the grid for roomName that seats requiredSeats with the lowest
// score: surplus cells plus twice the distance from the room's natural shape.
func Plan(roomName string, requiredSeats int) (GridPlan, error) {
	if requiredSeats < 1 {
		return GridPlan{}, ErrInvalidSeatCount
	}
	base := HintFor(roomName)

	bestRows, bestCols, bestScore := 0, 0, math.MaxInt
	for rows := max(4, base.Rows-2); rows <= base.Rows+3; rows++ {
		for cols := max(4, base.SeatsPerRow-3); cols <= base.SeatsPerRow+4; cols++ {
			capacity := rows * cols
			if capacity < requiredSeats {
				continue
			}
			score := (capacity - requiredSeats) + 2*(abs(rows-base.Rows)+abs(cols-base.SeatsPerRow))
			if score < bestScore {
				bestRows, bestCols, bestScore = rows, cols, score
			}
		}
	}
	if bestScore == math.MaxInt {
		bestRows = int(math.Ceil(math.Sqrt(float64(requiredSeats))))
		bestCols = (requiredSeats + bestRows - 1) / bestRows
	}

	return GridPlan{
		Rows:          bestRows,
		SeatsPerRow:   bestCols,
		VIPRowLabels:  vipRows(bestRows),
		RequiredSeats: requiredSeats,
	}, nil
}

// vipRows returns the last min(3, ceil(rows/3)) row labels.
func vipRows(rows int) []string {
	n := min(3, (rows+2)/3)
	labels := make([]string, 0, n)
	for r := rows - n; r < rows; r++ {
		labels = append(labels, RowLabel(r))
	}
	return labels
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
