package http

import (
	"strconv"
	"time"
)

// reportYears is how many years the reports page offers, counting back from now.
const reportYears = 5

type option struct {
	Value    int
	Label    string
	Selected bool
}

// yearOptions lists the current year and the previous ones, newest first.
// A selected year outside that window is appended so it stays visible.
func yearOptions(now time.Time, selected int) []option {
	opts := make([]option, 0, reportYears+1)
	found := false
	for i := 0; i < reportYears; i++ {
		y := now.Year() - i
		opts = append(opts, option{Value: y, Label: strconv.Itoa(y), Selected: y == selected})
		found = found || y == selected
	}
	if !found {
		opts = append(opts, option{Value: selected, Label: strconv.Itoa(selected), Selected: true})
	}
	return opts
}

func monthOptions(selected time.Month) []option {
	opts := make([]option, 0, 12)
	for m := time.January; m <= time.December; m++ {
		opts = append(opts, option{Value: int(m), Label: m.String(), Selected: m == selected})
	}
	return opts
}

