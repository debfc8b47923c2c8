package seatplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countCells(cells []Cell) (sellable, vip, disabled int) {
	for _, c := range cells {
		if c.Disabled {
			disabled++
			continue
		}
		sellable++
		if c.VIP {
			vip++
		}
	}
	return
}

func TestPlan_ExactFitKeepsNaturalShape(t *testing.T) {
	p, err := Plan("unknown room", 60)
	require.NoError(t, err)

	assert.Equal(t, 6, p.Rows)
	assert.Equal(t, 10, p.SeatsPerRow)
	assert.Equal(t, []string{"E", "F"}, p.VIPRowLabels)
	assert.Equal(t, 0, p.Surplus())
}

func TestPlan_PrefersSmallestSurplus(t *testing.T) {
	// 5x10 scores 2 (no surplus, one row off) and beats 6x10 which scores 10.
	p, err := Plan("unknown room", 50)
	require.NoError(t, err)

	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, 10, p.SeatsPerRow)
	assert.Equal(t, []string{"D", "E"}, p.VIPRowLabels)
}

func TestPlan_TrailingCellsDisabledRowMajor(t *testing.T) {
	p, err := Plan("unknown room", 58)
	require.NoError(t, err)
	require.Equal(t, 6, p.Rows)
	require.Equal(t, 10, p.SeatsPerRow)

	cells := p.Cells()
	require.Len(t, cells, 60)

	var disabled []string
	for _, c := range cells {
		if c.Disabled {
			disabled = append(disabled, SeatLabel(c.Row, c.Number))
		}
	}
	assert.Equal(t, []string{"F9", "F10"}, disabled)

	sellable, vip, _ := countCells(cells)
	assert.Equal(t, 58, sellable)
	assert.Equal(t, 18, vip)
}

func TestPlan_RoomHintIsCaseInsensitive(t *testing.T) {
	p, err := Plan("  SALA imax ", 160)
	require.NoError(t, err)

	assert.Equal(t, 10, p.Rows)
	assert.Equal(t, 16, p.SeatsPerRow)
	assert.Equal(t, []string{"H", "I", "J"}, p.VIPRowLabels)
}

func TestPlan_FallbackBeyondSearchBounds(t *testing.T) {
	p, err := Plan("unknown room", 1000)
	require.NoError(t, err)

	assert.Equal(t, 32, p.Rows)
	assert.Equal(t, 32, p.SeatsPerRow)
	assert.Equal(t, []string{"AD", "AE", "AF"}, p.VIPRowLabels)

	sellable, vip, disabled := countCells(p.Cells())
	assert.Equal(t, 1000, sellable)
	assert.Equal(t, 24, disabled)
	assert.Equal(t, 72, vip)
}

func TestPlan_SingleSeat(t *testing.T) {
	p, err := Plan("", 1)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 7, p.SeatsPerRow)
	sellable, _, disabled := countCells(p.Cells())
	assert.Equal(t, 1, sellable)
	assert.Equal(t, 27, disabled)
}

func TestPlan_RejectsNonPositiveSeatCount(t *testing.T) {
	_, err := Plan("sala 1", 0)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
}

func TestPlan_SellableAndVIPCountsHoldForAllSizes(t *testing.T) {
	rooms := []string{"unknown", "sala 1", "sala 2", "sala vip", "sala imax"}
	for _, room := range rooms {
		for n := 1; n <= 300; n++ {
			p, err := Plan(room, n)
			require.NoError(t, err)
			require.GreaterOrEqual(t, p.Capacity(), n)

			cells := p.Cells()
			sellable, vip, _ := countCells(cells)
			require.Equal(t, n, sellable, "room=%s n=%d", room, n)

			vipRowCount := min(3, (p.Rows+2)/3)
			disabledVIPCells := 0
			for _, c := range cells {
				if c.Disabled && c.RowIndex >= p.Rows-vipRowCount {
					disabledVIPCells++
				}
			}
			require.Equal(t, vipRowCount*p.SeatsPerRow-disabledVIPCells, vip, "room=%s n=%d", room, n)
		}
	}
}

func TestPlan_IsDeterministic(t *testing.T) {
	a, err := Plan("sala 2", 77)
	require.NoError(t, err)
	b, err := Plan("sala 2", 77)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRowLabelRoundTrip(t *testing.T) {
	cases := map[int]string{0: "A", 5: "F", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for idx, label := range cases {
		assert.Equal(t, label, RowLabel(idx))
		got, ok := RowIndex(label)
		assert.True(t, ok)
		assert.Equal(t, idx, got)
	}
	_, ok := RowIndex("A1")
	assert.False(t, ok)
}

func TestParseSeatLabel(t *testing.T) {
	row, n, ok := ParseSeatLabel(" e4 ")
	require.True(t, ok)
	assert.Equal(t, "E", row)
	assert.Equal(t, 4, n)

	row, n, ok = ParseSeatLabel("AA12")
	require.True(t, ok)
	assert.Equal(t, "AA", row)
	assert.Equal(t, 12, n)

	for _, bad := range []string{"", "E", "4E", "E0", "E-1", "É4"} {
		_, _, ok := ParseSeatLabel(bad)
		assert.False(t, ok, bad)
	}
}
