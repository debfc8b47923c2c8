package seatplan

import (
	"strconv"
	"strings"
)

// RowLabel converts a zero-based row index to a spreadsheet-style label:
// 0 -> A, 25 -> Z, 26 -> AA, 27 -> AB.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex is the inverse of RowLabel. It reports false for labels that
// contain anything other than ASCII letters.
func RowIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// SeatLabel renders a seat position the way tickets print it, e.g. "E4".
func SeatLabel(row string, number int) string {
	return row + strconv.Itoa(number)
}

// ParseSeatLabel splits "E4" or "aa12" into its row label and seat number.
func ParseSeatLabel(label string) (row string, number int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return "", 0, false
	}
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return "", 0, false
		}
		number = number*10 + int(ch-'0')
		if number > 1<<20 {
			return "", 0, false
		}
	}
	if number < 1 {
		return "", 0, false
	}
	return s[:i], number, true
}
