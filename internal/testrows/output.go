package testrows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/normalize"
	"github.com/snagasawa/kpisync/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// rowDoc is the JSON form of one generated row.
type rowDoc struct {
	Member   string  `json:"member"`
	Project  string  `json:"project"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Calls    int     `json:"calls"`
	PR       int     `json:"pr"`
	Appo     int     `json:"appo"`
	Feedback string  `json:"feedback,omitempty"`
}

// saveRowsToFile saves the generated rows to a JSON file.
func saveRowsToFile(ctx context.Context, config *Config, rows [][]model.Cell) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_rows_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	docs := make([]rowDoc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, rowDoc{
			Member:   row[0].String(),
			Project:  row[1].String(),
			Date:     row[2].String(),
			Hours:    normalize.Number(row[3]),
			Calls:    normalize.Int(row[4]),
			PR:       normalize.Int(row[5]),
			Appo:     normalize.Int(row[6]),
			Feedback: row[7].String(),
		})
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), logFilePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "rows saved to file", logger.String("filename", filename))
	return nil
}
