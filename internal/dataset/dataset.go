// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads the curated local book dataset: a JSON export of
// spreadsheet rows, either a bare array or an object wrapping the array.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pdiddy/book-metasearch/internal/normalize"
)

// envelopeKeys are the object keys checked, in order, for the row array.
var envelopeKeys = []string{"rows", "data", "items", "list", "docs"}

// Info describes the outcome of a load.
type Info struct {
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
	Count  int    `json:"count" yaml:"count"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Load reads the dataset at path. A missing file or an unreadable document
// yields no records; the reason is reported in Info and in the error.
// Scalar field values are kept as text; nulls, arrays and objects are
// dropped.
func Load(path string) ([]normalize.Raw, Info, error) {
	info := Info{Path: path}
	if path == "" {
		return nil, info, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, info, nil
	}
	info.Exists = true
	if err != nil {
		info.Error = err.Error()
		return nil, info, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	rows, err := Parse(data)
	if err != nil {
		info.Error = err.Error()
		return nil, info, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	info.Count = len(rows)
	return rows, info, nil
}

// Parse decodes a dataset document. An object without any recognized
// envelope key, or a top-level scalar, yields zero rows.
func Parse(data []byte) ([]normalize.Raw, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, k := range envelopeKeys {
			if list, ok := v[k].([]any); ok {
				items = list
				break
			}
		}
	}

	rows := make([]normalize.Raw, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, flatten(obj))
	}
	return rows, nil
}

func flatten(obj map[string]any) normalize.Raw {
	raw := make(normalize.Raw, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			raw[k] = val
		case json.Number:
			raw[k] = val.String()
		case bool:
			raw[k] = strconv.FormatBool(val)
		}
	}
	return raw
}
