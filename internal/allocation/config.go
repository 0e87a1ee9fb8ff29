package allocation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source supplies allocation entries to the allocator. The production source
// is loaded once at startup; the interface keeps the loading failure path
// testable.
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
}

type configFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadConfig reads and validates the allocation config file. Entry order is
// preserved: when two entries share the same maximal prefix length, the
// first listed wins.
func LoadConfig(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allocation config: %w", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse allocation config: %w", err)
	}
	if len(cfg.Entries) == 0 {
		return nil, fmt.Errorf("allocation config %s contains no entries", path)
	}
	for i, entry := range cfg.Entries {
		if entry.Prefix == "" || entry.ScreeningService == "" || entry.ServiceProvider == "" {
			return nil, fmt.Errorf("allocation config entry %d is incomplete", i)
		}
	}
	return cfg.Entries, nil
}

// StaticSource serves a fixed entry set loaded at startup.
type StaticSource struct {
	entries []Entry
}

func NewStaticSource(entries []Entry) *StaticSource {
	return &StaticSource{entries: entries}
}

func (s *StaticSource) Entries(context.Context) ([]Entry, error) {
	return s.entries, nil
}
