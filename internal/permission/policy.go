package permission

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadPolicyFile reads a YAML policy that replaces the built-in tables.
// The file is read once at startup; the result is never mutated.
func LoadPolicyFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

func ParsePolicy(data []byte) (*Tables, error) {
	var t Tables
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Pages == nil {
		t.Pages = map[string]PageRule{}
	}
	if t.Actions == nil {
		t.Actions = map[string]map[string][]Role{}
	}
	return &t, nil
}

// Validate rejects unknown roles and malformed routes.
func (t *Tables) Validate() error {
	var problems []string
	for route, rule := range t.Pages {
		if !strings.HasPrefix(route, "/") {
			problems = append(problems, fmt.Sprintf("page %q must start with /", route))
		}
		for _, r := range rule.AllowedRoles {
			if !r.Valid() {
				problems = append(problems, fmt.Sprintf("page %q: unknown role %q", route, r))
			}
		}
	}
	for resource, actions := range t.Actions {
		for action, roles := range actions {
			for _, r := range roles {
				if !r.Valid() {
					problems = append(problems, fmt.Sprintf("action %s.%s: unknown role %q", resource, action, r))
				}
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid policy: %s", strings.Join(problems, "; "))
	}
	return nil
}
