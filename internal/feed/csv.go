package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"tickflow/internal/domain"
)

// LoadCSV reads an exported tick file into a raw batch. The first record is
// the header; remaining records become rows verbatim. Ragged rows are kept,
// cleaning decides what to do with them.
func LoadCSV(path, symbol string, date time.Time) (*domain.RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // exports are not always rectangular
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &domain.RawBatch{Symbol: symbol, Date: date}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, record)
	}

	return &domain.RawBatch{
		Symbol:  symbol,
		Date:    date,
		Columns: header,
		Rows:    rows,
	}, nil
}
