package fov

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ReadCSVList reads FOV names from a FOV list CSV (the format exported next
// to a folder of generated TIFFs). The column holding the names is
// "FOV Name"; the first column is used when no such header exists.
func ReadCSVList(path string) ([]FOV, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FOV list: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse FOV list %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("FOV list %s is empty", path)
	}

	column := 0
	for i, header := range records[0] {
		if strings.EqualFold(strings.TrimSpace(header), "FOV Name") {
			column = i
			break
		}
	}

	fovs := make([]FOV, 0, len(records)-1)
	for _, record := range records[1:] {
		if column >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[column])
		if name == "" {
			continue
		}
		fovs = append(fovs, FOV{Name: name})
	}
	if len(fovs) == 0 {
		return nil, fmt.Errorf("FOV list %s holds no FOV names", path)
	}
	return fovs, nil
}
