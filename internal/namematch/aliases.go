package namematch

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasData []byte

// aliasFile is the on-disk shape of an alias table.
type aliasFile struct {
	Nicknames [][]string        `yaml:"nicknames"`
	Names     map[string]string `yaml:"names"`
}

// AliasTable holds bidirectional first-name equivalents and whole-name rewrites.
// It is read-only after construction and safe for concurrent use.
type AliasTable struct {
	groups map[string][]int
	names  map[string]string
}

// DefaultAliases returns the alias table shipped with the binary.
func DefaultAliases() *AliasTable {
	table, err := ParseAliases(defaultAliasData)
	if err != nil {
		panic(fmt.Sprintf("embedded alias table: %v", err))
	}
	return table
}

// LoadAliasFile reads an alias table from a YAML file.
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	return ParseAliases(data)
}

// ParseAliases builds an alias table from YAML.
func ParseAliases(data []byte) (*AliasTable, error) {
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}

	table := &AliasTable{
		groups: make(map[string][]int),
		names:  make(map[string]string, len(file.Names)),
	}
	for i, group := range file.Nicknames {
		if len(group) < 2 {
			return nil, fmt.Errorf("nickname group %d needs at least two names", i)
		}
		for _, name := range group {
			key := Normalize(name)
			if key == "" {
				return nil, fmt.Errorf("nickname group %d has an empty name", i)
			}
			table.groups[key] = append(table.groups[key], i)
		}
	}
	for from, to := range file.Names {
		a, b := Normalize(from), Normalize(to)
		table.names[a] = b
		table.names[b] = a
	}
	return table, nil
}

// Equivalent reports whether two normalized first names share a nickname group.
func (a *AliasTable) Equivalent(x, y string) bool {
	if a == nil {
		return false
	}
	for _, gx := range a.groups[x] {
		for _, gy := range a.groups[y] {
			if gx == gy {
				return true
			}
		}
	}
	return false
}

// Canonical returns the other spelling of a normalized whole name, in either direction.
func (a *AliasTable) Canonical(normalized string) (string, bool) {
	if a == nil {
		return "", false
	}
	to, ok := a.names[normalized]
	return to, ok
}
