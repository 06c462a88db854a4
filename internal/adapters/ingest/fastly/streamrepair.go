package fastly

import (
	"bufio"
	"io"
	"regexp"
)

// trailing comma, optional whitespace, closing brace at end of line
var trailingComma = regexp.MustCompile(`,\s*\}\s*$`)

// RepairReader wraps a byte stream and removes the known trailing-comma
// defect from each line. Reads are served from a carry-over buffer so the
// output is identical regardless of caller read-buffer size. Commas mid-line
// or nested structural errors are left alone
type RepairReader struct {
	src *bufio.Reader
	buf []byte
}

// NewRepairReader creates a RepairReader over r
func NewRepairReader(r io.Reader) *RepairReader {
	return &RepairReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader. It refills the carry-over buffer one repaired
// line at a time and serves from it
func (r *RepairReader) Read(p []byte) (int, error) {
	if len(r.buf) > 0 {
		return r.serve(p), nil
	}

	line, err := r.src.ReadBytes('\n')
	if len(line) > 0 {
		r.buf = trailingComma.ReplaceAll(line, []byte("}"))
		if n := r.serve(p); n > 0 {
			return n, nil
		}
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}

func (r *RepairReader) serve(p []byte) int {
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n
}
