// Package report writes correctly geocoded address records as CSV or XLSX.
package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doormap/internal/fetcher"
	"github.com/sells-group/doormap/internal/model"
)

// Format selects the report file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a configured report format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", eris.Errorf("report: unsupported format %q", s)
	}
}

// Write writes records to path in the given format, creating parent
// directories.
func Write(path string, format Format, records []model.AddressRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: create dir for %s", path)
	}

	switch format {
	case FormatXLSX:
		return WriteXLSX(path, records)
	case FormatCSV, "":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "report: create %s", path)
		}
		if err := WriteCSV(f, records); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrapf(f.Close(), "report: close %s", path)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []model.AddressRecord) error {
	return eris.Wrap(fetcher.WriteDelimited(w, records, fetcher.CSVOptions{}), "report: write csv")
}

// table renders records as a header row followed by one row per record, in
// the same column order as the CSV report.
func table(records []model.AddressRecord) ([][]string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, nil
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "report: render table")
	}
	return rows, nil
}
