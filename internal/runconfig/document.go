package runconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Document is the imaging tool's persistent configuration: a flat JSON object
// with dotted keys. Keys the sweep does not manage round-trip untouched.
type Document map[string]any

// LoadDocument reads the tool configuration from disk. Numbers are decoded as
// json.Number so values the sweep never touches are rewritten verbatim.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool config: %w", err)
	}

	doc := Document{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse tool config: %w", err)
	}
	return doc, nil
}

// Save rewrites the tool configuration in place, truncating any stale trailing
// content. The file must already exist: the sweep edits the tool's config, it
// never creates one.
func (d Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("encode tool config: %w", err)
	}
	data = append(data, '\n')

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open tool config for rewrite: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write tool config: %w", err)
	}
	return file.Close()
}
