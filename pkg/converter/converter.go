package converter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/xhad/reviews/internal/models"
)

// Required columns in the review CSV.
const (
	ColumnProductTitle = "product_title"
	ColumnReview       = "review"
)

// SchemaError reports required columns absent from the CSV header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ErrEmptyInput is returned when the source contains a header but no rows.
var ErrEmptyInput = errors.New("review file contains no rows")

// Convert reads tabular review data and maps each row to a Document.
// Output order matches input row order. Missing review text becomes an
// empty string; a missing product title becomes models.UnknownProduct.
func Convert(r io.Reader) ([]models.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %v", err)
	}

	titleIdx, reviewIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case ColumnProductTitle:
			titleIdx = i
		case ColumnReview:
			reviewIdx = i
		}
	}

	var missing []string
	if titleIdx == -1 {
		missing = append(missing, ColumnProductTitle)
	}
	if reviewIdx == -1 {
		missing = append(missing, ColumnReview)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var docs []models.Document
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %v", err)
		}

		title := field(row, titleIdx)
		if title == "" {
			title = models.UnknownProduct
		}

		docs = append(docs, models.Document{
			Text:     field(row, reviewIdx),
			Metadata: map[string]string{"product_name": title},
		})
	}

	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}

	log.Printf("[CONVERT] converted %d documents", len(docs))
	return docs, nil
}

// ConvertFile opens the review file at path and converts its rows.
func ConvertFile(path string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("review file not found: %v", err)
	}
	defer f.Close()

	return Convert(f)
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
