package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// loadSeedsCSV reads seed URLs from a CSV file. The column named "url"
// (case-insensitive) is used; a headerless single-column file works too.
func loadSeedsCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	urlColumn := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "url") {
			urlColumn = i
			break
		}
	}

	var seeds []string
	appendSeed := func(value string) {
		if value = strings.TrimSpace(value); value != "" {
			seeds = append(seeds, value)
		}
	}

	if urlColumn == -1 {
		// No url column: treat the file as a bare list of URLs.
		if len(header) == 1 && strings.Contains(header[0], "://") {
			appendSeed(header[0])
			urlColumn = 0
		} else {
			return nil, fmt.Errorf("csv has no 'url' column")
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if urlColumn < len(row) {
			appendSeed(row[urlColumn])
		}
	}
	return seeds, nil
}
