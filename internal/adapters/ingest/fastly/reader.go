package fastly

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	perr "logcrunch/internal/platform/errors"
)

// Reader streams LogRecord items from a gzip log object.
// The pipeline is gzip -> RepairReader -> json.Decoder; records come back in
// stream order. The first failure poisons the Reader: decoding an object is
// all-or-nothing so a half-ingested object is never finalized as a success
type Reader struct {
	rc      io.ReadCloser
	gz      *gzip.Reader
	dec     *json.Decoder
	counter *countingReader
	n       int
	err     error
}

// NewReader creates a Reader from a raw (still compressed) ReadCloser
func NewReader(rc io.ReadCloser) (*Reader, error) {
	gz, err := gzip.NewReader(bufio.NewReader(rc))
	if err != nil {
		if cerr := rc.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	cr := &countingReader{r: NewRepairReader(gz)}
	return &Reader{rc: rc, gz: gz, dec: json.NewDecoder(cr), counter: cr}, nil
}

// Next returns the next record; io.EOF when the stream is exhausted.
// Decode failures are tagged with the 0-based record index at which they
// occurred and are sticky
func (rd *Reader) Next() (LogRecord, error) {
	if rd.err != nil {
		return LogRecord{}, rd.err
	}

	var line logLine
	if err := rd.dec.Decode(&line); err != nil {
		if errors.Is(err, io.EOF) {
			rd.err = io.EOF
			return LogRecord{}, io.EOF
		}
		rd.err = perr.WithRecord(
			perr.Wrapf(err, perr.ErrorCodeDecode, "JSON parse error in entry %d", rd.n), rd.n)
		return LogRecord{}, rd.err
	}

	rec, err := line.record()
	if err != nil {
		rd.err = perr.WithRecord(
			perr.Wrapf(err, perr.ErrorCodeDecode, "invalid field in entry %d", rd.n), rd.n)
		return LogRecord{}, rd.err
	}

	rd.n++
	return rec, nil
}

// Close closes the gzip layer and the underlying reader
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil {
			first = err
		}
	}
	if rd.rc != nil {
		if err := rd.rc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns records decoded so far and uncompressed bytes consumed
func (rd *Reader) Stats() (records int, bytes int64) {
	return rd.n, rd.counter.n
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
