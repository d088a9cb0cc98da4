package config

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed leagues.yaml
var defaultLeaguesYAML []byte

// --------------------------------------------------------------------------
// League registry
// --------------------------------------------------------------------------

// League is one competition in the closed polling list.
type League struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
}

// Registry is an ordered list of known competitions.
type Registry struct {
	Leagues []League `yaml:"leagues"`
}

// DefaultRegistry returns the built-in registry. It panics if the embedded
// document is malformed, which only a broken build can cause.
func DefaultRegistry() Registry {
	r, err := ParseRegistry(defaultLeaguesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded leagues.yaml: %v", err))
	}
	return r
}

// ParseRegistry decodes a YAML league registry and rejects empty lists,
// non-positive ids and duplicates.
func ParseRegistry(data []byte) (Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Registry{}, fmt.Errorf("decode leagues: %w", err)
	}
	if len(r.Leagues) == 0 {
		return Registry{}, fmt.Errorf("no leagues defined")
	}
	seen := make(map[int]bool, len(r.Leagues))
	for _, l := range r.Leagues {
		if l.ID <= 0 {
			return Registry{}, fmt.Errorf("league %q: invalid id %d", l.Name, l.ID)
		}
		if seen[l.ID] {
			return Registry{}, fmt.Errorf("duplicate league id %d", l.ID)
		}
		seen[l.ID] = true
	}
	return r, nil
}

// Lookup returns the league with the given id.
func (r Registry) Lookup(id int) (League, bool) {
	for _, l := range r.Leagues {
		if l.ID == id {
			return l, true
		}
	}
	return League{}, false
}

// Select narrows the registry to the given ids, keeping registry order.
// An empty selection returns every league.
func (r Registry) Select(ids []string) ([]League, error) {
	if len(ids) == 0 {
		return append([]League(nil), r.Leagues...), nil
	}
	want := make(map[int]bool, len(ids))
	for _, s := range ids {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid league id %q", s)
		}
		if _, ok := r.Lookup(id); !ok {
			return nil, fmt.Errorf("league %d is not in the registry", id)
		}
		want[id] = true
	}
	out := make([]League, 0, len(want))
	for _, l := range r.Leagues {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}
