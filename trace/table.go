package trace

import (
	"fmt"
	"io"
	"strings"
)

// WriteTable renders samples as a tab-separated, scientific-notation table
// with a header row of "time" plus labels, one line per sample. This
// mirrors the plain trace dumps a pulsed-power deck run produces for
// spreadsheet import.
func WriteTable(w io.Writer, labels []string, samples []Sample) error {
	header := append([]string{"time"}, labels...)
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, s := range samples {
		fields := make([]string, 0, len(s.Values)+1)
		fields = append(fields, fmt.Sprintf("%.5e", s.Time))
		for _, v := range s.Values {
			fields = append(fields, fmt.Sprintf("%.5e", v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}
