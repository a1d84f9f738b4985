// Package route computes destination paths from filename/folder masks and
// files compiled artifacts into the output tree.
package route

import (
	"fmt"
	"strings"

	"genassign/internal/worksheet"
)

// RoutingError reports an invalid mask reference or a destination that
// cannot be created or written.
type RoutingError struct {
	Record string
	Msg    string
	Cause  error
}

func (e *RoutingError) Error() string {
	if e == nil {
		return ""
	}
	if e.Record != "" {
		return fmt.Sprintf("route %s: %s", e.Record, e.Msg)
	}
	return "route: " + e.Msg
}

func (e *RoutingError) Unwrap() error { return e.Cause }

// Demask expands a mask against a record. `#d` with d in 1..9 is replaced
// by the record's field at that 1-based column position; every other
// character is literal, including a `#` not followed by a digit. A pure
// function of (mask, record).
func Demask(mask string, rec worksheet.Record) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(mask); i++ {
		c := mask[i]
		if c != '#' || i+1 >= len(mask) {
			sb.WriteByte(c)
			continue
		}
		d := mask[i+1]
		switch {
		case d >= '1' && d <= '9':
			v, ok := rec.Field(int(d - '0'))
			if !ok {
				return "", &RoutingError{Record: rec.Identity(),
					Msg: fmt.Sprintf("mask %q references column %c but the record has %d fields", mask, d, rec.Len())}
			}
			sb.WriteString(v)
			i++
		case d == '0':
			return "", &RoutingError{Record: rec.Identity(),
				Msg: fmt.Sprintf("mask %q: field references are 1-based, #0 is invalid", mask)}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
