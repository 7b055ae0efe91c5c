package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Timing is one line of a run summary: count units of work in Elapsed.
type Timing struct {
	Label   string
	Count   int64
	Unit    string
	Elapsed time.Duration
}

// Rate returns units per second, or 0 when nothing was timed.
func (t Timing) Rate() float64 {
	if t.Elapsed <= 0 {
		return 0
	}

	return float64(t.Count) / t.Elapsed.Seconds()
}

// Print writes timings as an aligned table:
//
//	seed    1000000 rows  12.48s  80128 rows/s
func Print(w io.Writer, timings ...Timing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range timings {
		_, err := fmt.Fprintf(tw, "%s\t%d %s\t%s\t%.0f %s/s\n",
			t.Label, t.Count, t.Unit, t.Elapsed.Round(time.Millisecond), t.Rate(), t.Unit)
		if err != nil {
			return err
		}
	}

	return tw.Flush()
}
