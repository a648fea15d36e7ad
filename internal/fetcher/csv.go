// Package fetcher talks to remote HTTP APIs and reads and writes the
// delimited files those APIs' results are cached in.
package fetcher

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// CSVOptions configures delimited reading and writing.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

func (o CSVOptions) comma() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// ReadDelimited decodes every row of a headed delimited stream into T using
// the struct's csv tags. Columns without a matching field are ignored and
// fields without a matching column keep their zero value. Empty input yields
// an empty slice.
func ReadDelimited[T any](r io.Reader, opts CSVOptions) ([]T, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.comma()
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if errors.Is(err, io.EOF) {
		return []T{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	rows := []T{}
	for {
		var row T
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: decode row %d", len(rows)+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteDelimited encodes rows with a header line taken from T's csv tags.
// Nothing is written for an empty slice.
func WriteDelimited[T any](w io.Writer, rows []T, opts CSVOptions) error {
	writer := csv.NewWriter(w)
	writer.Comma = opts.comma()

	enc := csvutil.NewEncoder(writer)
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "csv: encode row %d", i+1)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}
