package deals

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

// ErrEmptyMenu is returned when a menu catalog lists no items.
var ErrEmptyMenu = errors.New("menu has no items")

type menuFile struct {
	Items []string `yaml:"items"`
}

// ParseMenu decodes a YAML menu catalog.
func ParseMenu(data []byte) ([]string, error) {
	var m menuFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}

	items := m.Items[:0]
	for _, it := range m.Items {
		if it != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyMenu
	}
	return items, nil
}

// LoadMenu reads a YAML menu catalog from path.
func LoadMenu(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	return ParseMenu(data)
}

// DefaultMenu returns the built-in menu catalog.
func DefaultMenu() []string {
	items, err := ParseMenu(defaultMenu)
	if err != nil {
		panic(fmt.Sprintf("built-in menu: %v", err))
	}
	return items
}
