// Package resultfile reads and writes the CSV results table.
package resultfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/go-cmp/cmp"
)

// Header is the fixed first line of every results table.
var Header = []string{"Test #", "Input Message", "Status Code", "Gemini Response"}

// Row is a single test result.
type Row struct {
	Index  int
	Input  string
	Status string
	Reply  string
}

func (r Row) record() []string {
	return []string{strconv.Itoa(r.Index), r.Input, r.Status, r.Reply}
}

// Writer writes rows to a CSV file, every row is flushed to disk before WriteRow returns
// so an interrupted run keeps what it already wrote.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	rows int
}

// Create truncates (or creates) the file at `path` and writes the header.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create results file: %w", err)
	}
	w := NewWriter(f)
	err = w.writeRecord(Header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// NewWriter wraps an open file, the header is not written.
func NewWriter(f *os.File) *Writer {
	return &Writer{file: f, csv: csv.NewWriter(f)}
}

func (w *Writer) writeRecord(record []string) error {
	err := w.csv.Write(record)
	if err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) WriteRow(row Row) error {
	err := w.writeRecord(row.record())
	if err != nil {
		return fmt.Errorf("write row %d: %w", row.Index, err)
	}
	w.rows++
	return nil
}

// Rows is the number of rows written so far, the header excluded.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) Path() string {
	return w.file.Name()
}

func (w *Writer) Close() error {
	w.csv.Flush()
	return errors.Join(w.csv.Error(), w.file.Close())
}

// ErrBadHeader is returned by Parse when the first line is not Header.
var ErrBadHeader = errors.New("not a results table: unexpected header")

// Parse reads a results table written by Writer.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, err
	}
	if diff := cmp.Diff(Header, header); diff != "" {
		return nil, fmt.Errorf("%w (-want +got):\n%s", ErrBadHeader, diff)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		index, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid index %q", len(rows)+1, record[0])
		}
		rows = append(rows, Row{
			Index:  index,
			Input:  record[1],
			Status: record[2],
			Reply:  record[3],
		})
	}
	return rows, nil
}

// Read opens and parses the results table at `path`.
func Read(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
