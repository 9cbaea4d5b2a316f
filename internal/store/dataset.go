package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/law-makers/marches/pkg/models"
)

// Dataset is the stored record array. Entries read from disk are kept as raw
// JSON objects, so fields this program does not model survive a rewrite
// unchanged.
type Dataset struct {
	entries []json.RawMessage
	refs    []string
}

// entryKey is the only part of a stored entry the crawler needs to read.
type entryKey struct {
	Reference *string `json:"reference"`
}

// decodeDataset splits content into entries. Every entry must be a JSON
// object whose reference, if present, is a string or null.
func decodeDataset(content []byte) (*Dataset, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, err
	}

	d := &Dataset{
		entries: make([]json.RawMessage, 0, len(entries)),
		refs:    make([]string, 0, len(entries)),
	}
	for i, raw := range entries {
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}

		var key entryKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		d.entries = append(d.entries, raw)
		if key.Reference != nil && *key.Reference != "" {
			d.refs = append(d.refs, *key.Reference)
		}
	}
	return d, nil
}

// Len returns the number of entries.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// References returns the non-empty references of all entries, in file order.
func (d *Dataset) References() []string {
	if d == nil {
		return nil
	}
	return d.refs
}

// Append adds records after the existing entries.
func (d *Dataset) Append(records ...models.Record) error {
	for _, rec := range records {
		raw, err := encodeEntry(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		d.entries = append(d.entries, raw)
		if key, ok := rec.Key(); ok {
			d.refs = append(d.refs, key)
		}
	}
	return nil
}

// encode renders the dataset as an indented JSON array. Existing entries are
// re-indented but otherwise kept as read.
func (d *Dataset) encode() ([]byte, error) {
	entries := d.entries
	if entries == nil {
		entries = []json.RawMessage{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEntry(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
