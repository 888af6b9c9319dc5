package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrFrame = errors.New("console: malformed matrix frame")

// Snapshot is one matrix dump as printed by ecmatrix.PrintMatrix.
type Snapshot struct {
	ScanRate uint16    `json:"scan_rate"`
	Raw      [][]uint8 `json:"raw"`
	At       time.Time `json:"at"`
}

// Cols returns the number of columns of the widest row.
func (s Snapshot) Cols() int {
	n := 0
	for _, row := range s.Raw {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Decoder assembles snapshots from console lines. Other console output
// between dumps is skipped.
type Decoder struct {
	now     func() time.Time
	cur     *Snapshot
	cols    int
	lastErr error
}

// NewDecoder creates a Decoder stamping snapshots with now. Nil uses
// time.Now.
func NewDecoder(now func() time.Time) *Decoder {
	if now == nil {
		now = time.Now
	}
	return &Decoder{now: now}
}

// Feed consumes one line and returns a snapshot when the line completes one.
// A dump ends at the next blank line, the next header or Flush.
func (d *Decoder) Feed(line string) (Snapshot, bool) {
	line = strings.TrimRight(line, "\r\n")

	if rate, cols, ok := parseHeader(line); ok {
		s, done := d.Flush()
		d.cur = &Snapshot{ScanRate: rate, At: d.now()}
		d.cols = cols
		return s, done
	}
	if d.cur == nil {
		return Snapshot{}, false
	}
	if strings.TrimSpace(line) == "" {
		return d.Flush()
	}

	row, values, err := parseRow(line)
	if err != nil || row != len(d.cur.Raw) || len(values) != d.cols {
		if err == nil {
			err = fmt.Errorf("%w: row %d with %d values", ErrFrame, row, len(values))
		}
		d.lastErr = err
		d.cur = nil
		return Snapshot{}, false
	}
	d.cur.Raw = append(d.cur.Raw, values)
	return Snapshot{}, false
}

// Flush returns the snapshot in progress, if it has any rows.
func (d *Decoder) Flush() (Snapshot, bool) {
	cur := d.cur
	d.cur = nil
	if cur == nil || len(cur.Raw) == 0 {
		return Snapshot{}, false
	}
	return *cur, true
}

// Err returns the last malformed frame error and clears it.
func (d *Decoder) Err() error {
	err := d.lastErr
	d.lastErr = nil
	return err
}

// parseHeader accepts "%3d " followed by "[%X]," for every column.
func parseHeader(line string) (uint16, int, bool) {
	rateField, cols, found := strings.Cut(strings.TrimLeft(line, " "), " ")
	if !found || !strings.HasPrefix(cols, "[") {
		return 0, 0, false
	}
	rate, err := strconv.ParseUint(rateField, 10, 16)
	if err != nil {
		return 0, 0, false
	}
	n := 0
	for _, f := range strings.Split(strings.TrimSuffix(cols, ","), ",") {
		idx, err := strconv.ParseUint(strings.Trim(f, "[]"), 16, 8)
		if err != nil || int(idx) != n {
			return 0, 0, false
		}
		n++
	}
	return uint16(rate), n, true
}

// parseRow accepts "[%d]:" followed by "%3d," for every column.
func parseRow(line string) (int, []uint8, error) {
	head, body, found := strings.Cut(line, "]:")
	if !found || !strings.HasPrefix(head, "[") {
		return 0, nil, fmt.Errorf("%w: %q", ErrFrame, line)
	}
	row, err := strconv.Atoi(head[1:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %q", ErrFrame, line)
	}
	var values []uint8
	for _, f := range strings.Split(strings.TrimSuffix(body, ","), ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %q", ErrFrame, line)
		}
		values = append(values, uint8(v))
	}
	return row, values, nil
}
