// Package trace reads memory access traces, writes the classification of
// each access, and records resolved accesses into a database.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

// ErrMalformedRecord is returned when a record of a trace cannot be parsed.
var ErrMalformedRecord = errors.New("malformed record")

// A Reader reads accesses in the form of "R <hex address>" or
// "W <hex address>". Tokens can be separated by any white space, so a
// record may span lines.
type Reader struct {
	scanner *bufio.Scanner
	count   int
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	return &Reader{scanner: scanner}
}

// Next returns the next access. It returns io.EOF at the end of the trace,
// and an error if the trace ends in the middle of a record or a record is
// malformed.
func (r *Reader) Next() (hierarchy.Access, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return hierarchy.Access{}, err
		}

		return hierarchy.Access{}, io.EOF
	}

	kind, err := parseKind(r.scanner.Text())
	if err != nil {
		return hierarchy.Access{}, r.wrap(err)
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return hierarchy.Access{}, err
		}

		return hierarchy.Access{}, r.wrap(io.ErrUnexpectedEOF)
	}

	addr, err := ParseAddress(r.scanner.Text())
	if err != nil {
		return hierarchy.Access{}, r.wrap(err)
	}

	r.count++

	return hierarchy.Access{Kind: kind, Address: addr}, nil
}

// Count returns the number of accesses read.
func (r *Reader) Count() int {
	return r.count
}

func (r *Reader) wrap(err error) error {
	return fmt.Errorf("trace: record %d: %w: %w",
		r.count+1, ErrMalformedRecord, err)
}

func parseKind(token string) (hierarchy.Kind, error) {
	switch token {
	case "R", "r":
		return hierarchy.Read, nil
	case "W", "w":
		return hierarchy.Write, nil
	default:
		return 0, fmt.Errorf("unknown access type %q", token)
	}
}

// ParseAddress parses a hexadecimal address, with or without the 0x prefix.
func ParseAddress(token string) (uint64, error) {
	token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")

	return strconv.ParseUint(token, 16, 64)
}
