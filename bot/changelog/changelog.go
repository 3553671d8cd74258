package changelog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed changelog.toml
var embedded []byte

// Entry is one released update
type Entry struct {
	Version int      `toml:"version"`
	Title   string   `toml:"title"`
	Summary string   `toml:"summary"`
	Changes []string `toml:"changes"`
}

// Changelog holds entries ordered by ascending version
type Changelog struct {
	Entries []Entry `toml:"entries"`
}

// Load parses the changelog shipped with the binary
func Load() (*Changelog, error) {
	return Parse(embedded)
}

// Parse decodes a TOML changelog. Versions must be positive and unique.
func Parse(data []byte) (*Changelog, error) {
	var cl Changelog
	if err := toml.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("failed to parse changelog: %w", err)
	}

	seen := make(map[int]bool, len(cl.Entries))
	for _, e := range cl.Entries {
		if e.Version <= 0 {
			return nil, fmt.Errorf("changelog entry %q has invalid version %d", e.Title, e.Version)
		}
		if seen[e.Version] {
			return nil, fmt.Errorf("changelog version %d appears more than once", e.Version)
		}
		seen[e.Version] = true
	}

	sort.Slice(cl.Entries, func(i, j int) bool {
		return cl.Entries[i].Version < cl.Entries[j].Version
	})
	return &cl, nil
}

// Latest returns the newest entry, or nil for an empty changelog
func (c *Changelog) Latest() *Entry {
	if len(c.Entries) == 0 {
		return nil
	}
	return &c.Entries[len(c.Entries)-1]
}

// LatestVersion returns the newest version, or 0 for an empty changelog
func (c *Changelog) LatestVersion() int {
	if latest := c.Latest(); latest != nil {
		return latest.Version
	}
	return 0
}

// Announcement renders the entry as a chat message
func (e *Entry) Announcement() string {
	var b strings.Builder
	b.WriteString("# NEW UPDATE:\n")
	fmt.Fprintf(&b, "## %s\n", e.Title)
	if e.Summary != "" {
		fmt.Fprintf(&b, "_%s_\n", e.Summary)
	}
	if len(e.Changes) > 0 {
		b.WriteString("\n")
		for _, change := range e.Changes {
			fmt.Fprintf(&b, "- %s\n", change)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
