// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"crypto/md5" //nolint:gosec // fingerprint only
	"encoding/hex"
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/rdf"
)

const (
	RDFType            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSRange          = "http://www.w3.org/2000/01/rdf-schema#range"
	LabelPropertyClass = "http://semsol.org/ns/arc#LabelProperty"
	// LabelGraph holds the rdf:type statements marking label properties.
	LabelGraph = "label-properties"

	DefaultUnnamedLabel = "An unnamed resource"

	labelCacheLimit = 1000
	labelsPerLookup = 3
)

// DefaultLabelProperties are consulted after the configured ones.
var DefaultLabelProperties = []string{
	"http://www.w3.org/2000/01/rdf-schema#label",
	"http://xmlns.com/foaf/0.1/name",
	"http://purl.org/dc/elements/1.1/title",
	"http://purl.org/rss/1.0/title",
	"http://www.w3.org/2004/02/skos/core#prefLabel",
	"http://xmlns.com/foaf/0.1/nick",
}

var (
	resourcePattern  = regexp.MustCompile(`(?i)^[a-z0-9_]+:[^\s]+$`)
	localNamePattern = regexp.MustCompile(`^(.*[/#])([^/#]+)$`)
	camelPattern     = regexp.MustCompile(`([a-z])([A-Z])`)
)

// LabelProperties returns the configured label properties followed by the
// defaults.
func (s *Store) LabelProperties() []string {
	return append(slices.Clone(s.opts.LabelProperties), DefaultLabelProperties...)
}

func labelFingerprint(ps []string) string {
	raw, _ := json.Marshal(ps)
	sum := md5.Sum(raw) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// InferLabelProperties rewrites the label property graph and records the
// fingerprint of the property list.
func (s *Store) InferLabelProperties(ctx context.Context) error {
	ps := s.LabelProperties()
	if _, err := s.DeleteGraph(ctx, LabelGraph); err != nil {
		return err
	}
	quads := make([]rdf.Quad, 0, len(ps))
	for _, p := range ps {
		quads = append(quads, rdf.Quad{
			Subject:   rdf.IRI(p),
			Predicate: RDFType,
			Object:    rdf.IRI(LabelPropertyClass),
			Graph:     LabelGraph,
		})
	}
	if _, err := s.Insert(ctx, quads); err != nil {
		return err
	}
	return s.SetSetting(ctx, SettingLabelProperties, labelFingerprint(ps))
}

func (s *Store) ensureLabelProperties(ctx context.Context) error {
	stored, err := Setting(ctx, s, SettingLabelProperties, "-")
	if err != nil {
		return err
	}
	if stored == labelFingerprint(s.LabelProperties()) {
		return nil
	}
	return s.InferLabelProperties(ctx)
}

func (s *Store) forgetLabels() {
	s.labelMu.Lock()
	s.labelCache = map[string]string{}
	s.labelMu.Unlock()
}

// ResourceLabel returns a human readable label for res: the longest value
// of its label properties, or a name derived from the IRI. Blank nodes
// without labels get unnamed. Values that are not resources are returned
// unchanged.
func (s *Store) ResourceLabel(ctx context.Context, res, unnamed string) (string, error) {
	s.labelMu.Lock()
	label, ok := s.labelCache[res]
	s.labelMu.Unlock()
	if ok {
		return label, nil
	}
	if !resourcePattern.MatchString(res) {
		return res, nil
	}

	if err := s.ensureLabelProperties(ctx); err != nil {
		return "", err
	}
	found, err := s.longestLabel(ctx, res)
	if err != nil {
		return "", err
	}
	isBNode := strings.HasPrefix(res, "_:")
	if found == "" && isBNode {
		return unnamed, nil
	}

	label = found
	if label == "" {
		label = strings.ReplaceAll(res, "#self", "")
		if m := localNamePattern.FindStringSubmatch(label); m != nil {
			label = m[2]
		}
	}
	label = strings.ReplaceAll(label, "_", " ")
	label = camelPattern.ReplaceAllStringFunc(label, func(pair string) string {
		return pair[:1] + " " + strings.ToLower(pair[1:])
	})

	s.labelMu.Lock()
	if len(s.labelCache) >= labelCacheLimit {
		s.labelCache = map[string]string{}
	}
	s.labelCache[res] = label
	s.labelMu.Unlock()
	return label, nil
}

func (s *Store) longestLabel(ctx context.Context, res string) (string, error) {
	class := rdf.IRI(LabelPropertyClass)
	props, err := s.Match(ctx, Pattern{Predicate: RDFType, Object: &class, Graph: LabelGraph})
	if err != nil {
		return "", err
	}

	subject := rdf.IRI(res)
	if strings.HasPrefix(res, "_:") {
		subject = rdf.BNode(res)
	}

	var best string
	seen := 0
	for _, prop := range props {
		quads, err := s.Match(ctx, Pattern{Subject: &subject, Predicate: prop.Subject.Value})
		if err != nil {
			return "", err
		}
		for _, q := range quads {
			if len(q.Object.Value) > len(best) {
				best = q.Object.Value
			}
			if seen++; seen >= labelsPerLookup {
				return best, nil
			}
		}
	}
	return best, nil
}

// ResourcePredicates returns the distinct predicates used with res as subject.
func (s *Store) ResourcePredicates(ctx context.Context, res string) ([]string, error) {
	subject := rdf.IRI(res)
	if strings.HasPrefix(res, "_:") {
		subject = rdf.BNode(res)
	}
	quads, err := s.Match(ctx, Pattern{Subject: &subject})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, q := range quads {
		if !slices.Contains(out, q.Predicate) {
			out = append(out, q.Predicate)
		}
	}
	return out, nil
}

// PredicateDomains returns the distinct rdf:type values of subjects using p.
func (s *Store) PredicateDomains(ctx context.Context, p string) ([]string, error) {
	uses, err := s.Match(ctx, Pattern{Predicate: p})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, u := range uses {
		subject := u.Subject
		types, err := s.Match(ctx, Pattern{Subject: &subject, Predicate: RDFType})
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			if !slices.Contains(out, t.Object.Value) {
				out = append(out, t.Object.Value)
			}
		}
	}
	return out, nil
}

// PredicateRange returns the rdfs:range declared for p, or "".
func (s *Store) PredicateRange(ctx context.Context, p string) (string, error) {
	subject := rdf.IRI(p)
	quads, err := s.Match(ctx, Pattern{Subject: &subject, Predicate: RDFSRange})
	if err != nil || len(quads) == 0 {
		return "", err
	}
	return quads[0].Object.Value, nil
}
