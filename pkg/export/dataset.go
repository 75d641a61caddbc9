package export

import (
	"fmt"
	"strconv"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Summary []Field
	Headers []string
	Rows    []map[string]string
}

// Field is a labelled value rendered above the table.
type Field struct {
	Label string
	Value string
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

// FormatScore renders a score with two decimals, the precision used for
// every numeric cell of an export.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
