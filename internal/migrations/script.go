package migrations

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// BatchSeparator ends every batch of a migration script, as understood by
// sqlcmd and SSMS.
const BatchSeparator = "GO"

const noTransactionMarker = " (no transaction)"

var batchHeader = regexp.MustCompile(`^-- batch \d+( \(no transaction\))?$`)

// WriteScript writes commands as a sqlcmd-compatible script. Every batch is
// preceded by a header comment that records whether it runs outside a transaction.
func WriteScript(w io.Writer, cmds []Command) error {
	bw := bufio.NewWriter(w)
	for i, c := range cmds {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "-- batch %d", i+1)
		if c.SuppressTransaction {
			bw.WriteString(noTransactionMarker)
		}
		bw.WriteString("\n")
		bw.WriteString(c.SQL)
		if !strings.HasSuffix(c.SQL, "\n") {
			bw.WriteString("\n")
		}
		bw.WriteString(BatchSeparator + "\n")
	}
	return bw.Flush()
}

// ReadScript parses a script written by WriteScript. Hand-written scripts work too:
// batches without a header run in a transaction, and comment lines between
// batches are ignored. A GO line inside a multi-line string literal is part of
// the literal, not a separator.
func ReadScript(r io.Reader) ([]Command, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		cmds     []Command
		current  strings.Builder
		inBatch  bool
		suppress bool
		quoted   bool
	)
	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			cmds = append(cmds, Command{SQL: current.String(), SuppressTransaction: suppress})
		}
		current.Reset()
		inBatch, suppress = false, false
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !quoted && strings.EqualFold(trimmed, BatchSeparator) {
			flush()
			continue
		}
		if !inBatch {
			if batchHeader.MatchString(trimmed) {
				suppress = strings.HasSuffix(trimmed, noTransactionMarker)
				inBatch = true
				continue
			}
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			inBatch = true
		}
		current.WriteString(line)
		current.WriteByte('\n')
		quoted = inLiteral(line, quoted)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	flush()
	return cmds, nil
}

// inLiteral reports whether a string literal is still open at the end of line,
// given whether one was open at its start. Doubled quotes stay inside the
// literal. Outside a literal, line comments and bracketed identifiers are skipped.
func inLiteral(line string, quoted bool) bool {
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case quoted:
			if c == '\'' {
				quoted = false
			}
		case c == '\'':
			quoted = true
		case c == '-' && strings.HasPrefix(line[i:], "--"):
			return false
		case c == '[':
			for i++; i < len(line); i++ {
				if line[i] == ']' {
					if i+1 < len(line) && line[i+1] == ']' {
						i++
						continue
					}
					break
				}
			}
		}
	}
	return quoted
}
