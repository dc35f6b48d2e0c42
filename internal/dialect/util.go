package dialect

import (
	"strings"
)

// DelimitList delimits each name and joins them with commas.
func DelimitList(names []string, delimit func(string) string) string {
	delimited := make([]string, len(names))
	for i, n := range names {
		delimited[i] = delimit(n)
	}
	return strings.Join(delimited, ", ")
}
