// Package dataset loads the CSV report the chatbot answers questions about and
// renders it as bounded plain text for the model.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	DefaultMaxRows  = 500
	DefaultMaxBytes = 200_000
)

// Options bound the rendered text. Zero values select the defaults.
type Options struct {
	MaxRows  int // data rows, header excluded
	MaxBytes int
}

func (o Options) withDefaults() Options {
	if o.MaxRows <= 0 {
		o.MaxRows = DefaultMaxRows
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	return o
}

// Dataset is a loaded CSV file.
type Dataset struct {
	Path      string
	Header    []string
	Rows      int // data rows in the file
	Rendered  int // data rows included in Text
	Text      string
	Truncated bool
}

var (
	// ErrEmpty is returned for a file with no records at all.
	ErrEmpty = errors.New("dataset is empty")
	// ErrHeaderTooLarge is returned when the header row alone exceeds MaxBytes.
	ErrHeaderTooLarge = errors.New("dataset header exceeds byte limit")
)

// Load reads and renders the CSV at path.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	ds.Path = path
	return ds, nil
}

// Parse renders CSV records from r. The header and rows are written
// comma-joined, one per line, until MaxRows or MaxBytes is reached. MaxBytes
// covers the header too; only the truncation note may go past it.
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // exported reports are often ragged
	cr.TrimLeadingSpace = true

	ds := &Dataset{}
	var b strings.Builder
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		if ds.Header == nil {
			header := strings.Join(rec, ",")
			if len(header)+1 > opts.MaxBytes {
				return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrHeaderTooLarge, len(header)+1, opts.MaxBytes)
			}
			ds.Header = rec
			b.WriteString(header)
			b.WriteByte('\n')
			continue
		}

		ds.Rows++
		if ds.Truncated {
			continue
		}
		line := strings.Join(rec, ",")
		if ds.Rendered >= opts.MaxRows || b.Len()+len(line)+1 > opts.MaxBytes {
			ds.Truncated = true
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		ds.Rendered++
	}
	if ds.Header == nil {
		return nil, ErrEmpty
	}

	if ds.Truncated {
		fmt.Fprintf(&b, "... (%d of %d rows shown)\n", ds.Rendered, ds.Rows)
	}
	ds.Text = strings.TrimRight(b.String(), "\n")
	return ds, nil
}

// Context renders the initial message that introduces the data to the model.
func (d *Dataset) Context(systemPrompt string) string {
	var b strings.Builder
	if p := strings.TrimSpace(systemPrompt); p != "" {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString("## Business Report Data:\n\n")
	b.WriteString(d.Text)
	b.WriteString("\n\nRemember this data for our conversation. Answer the user's questions based on this information.")
	return b.String()
}
