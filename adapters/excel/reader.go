// Package excel loads tabular datasets from XLSX and CSV files. The
// first row supplies observable names; blank cells are missing values.
// Loading sits outside the analysis core: it produces a dataset and
// hands it to the caller.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"covary/domain/dataset"
	"covary/domain/scale"
	"covary/internal"
	apperrors "covary/internal/errors"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger

	// Declarations optionally overrides the inferred scale per
	// observable name.
	Declarations map[string]scale.Declared
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.Named("reader"),
	}
}

// ReadDataset reads the file into a validated dataset.
func (r *DataReader) ReadDataset() (*dataset.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.InputError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, apperrors.InputError("unsupported file type: " + r.fileType)
	}
	if err != nil {
		return nil, err
	}

	return r.datasetFromRows(rows)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are padded below

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	file, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	// The first sheet is the dataset, matching the single-table input model.
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// datasetFromRows converts header + data rows into observables.
func (r *DataReader) datasetFromRows(rows [][]string) (*dataset.Dataset, error) {
	if len(rows) < 2 {
		return nil, apperrors.InputError(fmt.Sprintf(
			"file needs a header row and at least one data row, got %d rows", len(rows)))
	}

	header := rows[0]
	dataRows := rows[1:]

	observables := make([]*dataset.Observable, 0, len(header))
	for col, rawName := range header {
		name := strings.TrimSpace(rawName)
		if name == "" {
			name = fmt.Sprintf("column_%d", col+1)
		}

		values := make([]scale.Value, len(dataRows))
		for i, row := range dataRows {
			if col < len(row) {
				values[i] = scale.Parse(row[col])
			} else {
				values[i] = scale.Missing()
			}
		}

		declared := r.Declarations[name]
		observables = append(observables, dataset.NewDeclaredObservable(name, values, declared))
	}

	r.logger.Info("loaded %s: %d observables, %d rows", r.filePath, len(observables), len(dataRows))
	return dataset.New(observables...)
}
