// Package migrations embeds the database schema so tests and tooling can
// apply it without a checkout-relative path.
package migrations

import (
	"embed"
	"sort"
)

//go:embed *.sql
var files embed.FS

// Scripts returns every migration in lexical (and therefore version) order.
func Scripts() ([]string, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		raw, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(raw))
	}
	return scripts, nil
}
