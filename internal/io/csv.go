package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Table is a column-oriented numeric table with named columns
type Table struct {
	Header  []string
	Columns [][]float64
	// Index optionally labels the rows
	Index []string
}

// Rows returns the number of rows, which is the length of the first column
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}

	return len(t.Columns[0])
}

func (t *Table) check() error {
	if len(t.Header) != len(t.Columns) {
		return fmt.Errorf("table has %d header fields but %d columns", len(t.Header), len(t.Columns))
	}
	for i, col := range t.Columns {
		if len(col) != t.Rows() {
			return fmt.Errorf("column %s has %d rows, want %d", t.Header[i], len(col), t.Rows())
		}
	}
	if t.Index != nil && len(t.Index) != t.Rows() {
		return fmt.Errorf("table has %d index labels but %d rows", len(t.Index), t.Rows())
	}

	return nil
}

// TableToTSV saves a Table as a tab separated file with a header line and no index column
func TableToTSV(path string, table *Table) error {
	if err := table.check(); err != nil {
		return fmt.Errorf("[TableToTSV] %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[TableToTSV] Failed to open: %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(table.Header); err != nil {
		return err
	}

	record := make([]string, len(table.Columns))
	for row := 0; row < table.Rows(); row++ {
		for i, col := range table.Columns {
			record[i] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return f.Close()
}

// TSVtoTable reads a file written by TableToTSV
func TSVtoTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[TSVtoTable] Failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("[TSVtoTable] Failed to parse file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("[TSVtoTable] %s: no header", path)
	}

	table := Table{
		Header:  records[0],
		Columns: make([][]float64, len(records[0])),
	}

	for _, record := range records[1:] {
		for i, str := range record {
			value, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return nil, fmt.Errorf("[TSVtoTable] Failed to parse: %w", err)
			}
			table.Columns[i] = append(table.Columns[i], value)
		}
	}

	return &table, nil
}
