// Package feeds declares the column layouts of the land and maritime feeds.
//
// Layouts live in layouts.yaml and are registered with the core registry at
// init. An operator can replace them at startup with LoadFile.
package feeds

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/estaciones/internal/core"
)

//go:embed layouts.yaml
var defaultLayouts []byte

type layoutFile struct {
	Feeds []layout `yaml:"feeds"`
}

type layout struct {
	Key       string         `yaml:"key"`
	Label     string         `yaml:"label"`
	Kind      string         `yaml:"kind"`
	Order     int            `yaml:"order"`
	SkipLines int            `yaml:"skip_lines"`
	Columns   map[string]int `yaml:"columns"`
	Prices    []priceLayout  `yaml:"prices"`
}

type priceLayout struct {
	FuelType string `yaml:"fuel_type"`
	Column   int    `yaml:"column"`
}

func init() {
	defs, err := Parse(defaultLayouts)
	if err != nil {
		panic(fmt.Sprintf("embedded feed layouts: %v", err))
	}
	for _, def := range defs {
		core.Register(def)
	}
}

// Parse decodes a layouts document into feed definitions.
func Parse(data []byte) ([]core.FeedDefinition, error) {
	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidLayout, err)
	}
	if len(file.Feeds) == 0 {
		return nil, fmt.Errorf("%w: no feeds declared", core.ErrInvalidLayout)
	}

	defs := make([]core.FeedDefinition, 0, len(file.Feeds))
	for _, l := range file.Feeds {
		def, err := l.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadFile replaces the registered layouts with the ones declared in path.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feed layouts: %w", err)
	}

	defs, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return core.Replace(defs)
}

func (l layout) definition() (core.FeedDefinition, error) {
	kind, err := parseKind(l.Kind)
	if err != nil {
		return core.FeedDefinition{}, fmt.Errorf("%w: feed %q: %v", core.ErrInvalidLayout, l.Key, err)
	}

	def := core.FeedDefinition{
		Key:       l.Key,
		Label:     l.Label,
		Kind:      kind,
		Order:     l.Order,
		SkipLines: l.SkipLines,
		Columns:   make(map[core.Field]int, len(l.Columns)),
	}
	for name, idx := range l.Columns {
		def.Columns[core.Field(name)] = idx
	}
	for _, p := range l.Prices {
		def.Prices = append(def.Prices, core.PriceColumn{FuelType: p.FuelType, Column: p.Column})
	}

	if err := def.Validate(); err != nil {
		return core.FeedDefinition{}, err
	}
	return def, nil
}

func parseKind(s string) (core.StationKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LAND", string(core.KindLand):
		return core.KindLand, nil
	case "MARITIME", string(core.KindMaritime):
		return core.KindMaritime, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}
