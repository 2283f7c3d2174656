// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package trigger

import (
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/quadrel-dev/quadrel/internal/query"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Bindings maps a query type to the triggers that run after it, in order.
type Bindings map[query.Type][]string

// NewBindings builds bindings from a configuration map keyed by query type
// name. Unknown types are rejected.
func NewBindings(m map[string][]string) (Bindings, error) {
	b := make(Bindings, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		t := query.Type(k)
		if !t.Supported() {
			return nil, quadrelerr.New(quadrelerr.CodeTriggerBindingsInvalid, "unknown query type in trigger bindings",
				quadrelerr.FieldQueryType(k))
		}
		for _, name := range m[k] {
			if Normalize(name) == "" {
				return nil, quadrelerr.New(quadrelerr.CodeTriggerBindingsInvalid, "empty trigger name",
					quadrelerr.FieldQueryType(k))
			}
		}
		b[t] = slices.Clone(m[k])
	}

	return b, nil
}

// names accepts either a single trigger name or a list of names.
type names []string

func (n *names) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*n = names{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*n = list
	return nil
}

// ParseBindings decodes a YAML document of the form
//
//	insert: querylog
//	delete: [querylog, optimize]
func ParseBindings(data []byte) (Bindings, error) {
	var raw map[string]names
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, quadrelerr.Errorf(quadrelerr.CodeTriggerBindingsInvalid, "trigger bindings parse: %s", err)
	}

	m := make(map[string][]string, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	return NewBindings(m)
}

// LoadBindings reads bindings from a YAML file. A missing file yields no
// bindings.
func LoadBindings(path string) (Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Bindings{}, nil
		}
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeTriggerBindingsInvalid, "reading trigger bindings",
			quadrelerr.Field("path", path))
	}

	b, err := ParseBindings(data)
	if err != nil {
		return nil, quadrelerr.With(err, quadrelerr.Field("path", path))
	}
	return b, nil
}

// For returns the triggers bound to t.
func (b Bindings) For(t query.Type) []string {
	return b[t]
}

// Merge returns the union of b and other. Triggers from other run after
// those of b; names already bound to the type are not repeated.
func (b Bindings) Merge(other Bindings) Bindings {
	out := make(Bindings, len(b)+len(other))
	for t, ns := range b {
		out[t] = slices.Clone(ns)
	}
	for t, ns := range other {
		for _, n := range ns {
			if !slices.ContainsFunc(out[t], func(have string) bool { return Normalize(have) == Normalize(n) }) {
				out[t] = append(out[t], n)
			}
		}
	}
	return out
}
