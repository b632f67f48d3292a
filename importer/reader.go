package importer

import (
	"fmt"
	"os"
)

// ReadFile loads a raw punch log from disk.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open punch log %s: %w", path, err)
	}
	return Load(path, data)
}

// Load returns the parseable log text for a named payload. Workbooks (.xlsx)
// are flattened row by row; every other payload is returned unchanged.
func Load(name string, data []byte) ([]byte, error) {
	if !isExcelName(name) {
		return data, nil
	}
	text, err := flattenExcelLog(data)
	if err != nil {
		return nil, fmt.Errorf("load punch log %s: %w", name, err)
	}
	return text, nil
}
