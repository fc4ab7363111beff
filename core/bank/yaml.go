package bank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acumenlabs/acumen/core/irt"
)

// File is the on-disk YAML layout of an item bank.
type File struct {
	// Version is a free-form bank revision tag.
	Version string `yaml:"version,omitempty"`

	Items []irt.Item `yaml:"items"`
}

// LoadFile reads an item-bank YAML file. Uncalibrated items are kept in
// the pool (they are filtered at selection time), but duplicate IDs are
// a data error.
func LoadFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	seen := make(map[string]bool, len(f.Items))
	for _, it := range f.Items {
		if it.ItemID == "" {
			return nil, fmt.Errorf("bank %s: item with empty id", path)
		}
		if seen[it.ItemID] {
			return nil, fmt.Errorf("bank %s: duplicate item id %s", path, it.ItemID)
		}
		seen[it.ItemID] = true
	}
	return NewPool(f.Items), nil
}

// SaveFile writes items to an item-bank YAML file.
func SaveFile(path, version string, items []irt.Item) error {
	data, err := yaml.Marshal(File{Version: version, Items: items})
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank: %w", err)
	}
	return nil
}
