// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"sort"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Pattern selects quads. Nil terms and empty strings match anything.
type Pattern struct {
	Subject   *rdf.Term
	Predicate string
	Object    *rdf.Term
	Graph     string
}

// Insert stores quads and returns how many were not already present.
//
// Triple ids are allocated from the highest id across the triple and split
// tables; concurrent writers in other processes are not coordinated.
func (s *Store) Insert(ctx context.Context, quads []rdf.Quad) (int64, error) {
	for _, q := range quads {
		if err := q.Validate(); err != nil {
			return 0, err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "reading split registry")
	}
	next, err := s.maxTripleID(ctx, split)
	if err != nil {
		return 0, err
	}

	var added int64
	for _, q := range quads {
		ids, err := s.internQuad(ctx, q)
		if err != nil {
			return added, err
		}
		tbl := s.tripleTableFor(split, q.Predicate)

		t, err := s.findTriple(ctx, tbl, ids)
		if err != nil {
			return added, err
		}
		if t == 0 {
			next++
			t = next
			_, err = s.adapter.Exec(ctx,
				"INSERT INTO "+tbl+" (t, s, p, o, o_lang_dt, s_type, o_type, misc) VALUES (?, ?, ?, ?, ?, ?, ?, 0)",
				t, ids.s, ids.p, ids.o, ids.langDT, int(q.Subject.Kind), int(q.Object.Kind))
			if err != nil {
				return added, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "inserting triple",
					quadrelerr.FieldTable(tbl))
			}
		}

		g2t := s.table("g2t")
		row, err := s.adapter.FetchRow(ctx, "SELECT t FROM "+g2t+" WHERE g = ? AND t = ?", ids.g, t)
		if err != nil {
			return added, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "probing graph membership")
		}
		if row != nil {
			continue
		}
		if _, err := s.adapter.Exec(ctx, "INSERT INTO "+g2t+" (g, t) VALUES (?, ?)", ids.g, t); err != nil {
			return added, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "inserting graph membership")
		}
		added++
	}
	return added, nil
}

type quadIDs struct {
	s, p, o, langDT, g int64
	sType, oType       rdf.Kind
}

func (s *Store) internQuad(ctx context.Context, q rdf.Quad) (quadIDs, error) {
	var ids quadIDs
	var err error
	if ids.s, err = s.Intern(ctx, q.Subject.Value, RoleSubject); err != nil {
		return ids, err
	}
	if ids.p, err = s.Intern(ctx, q.Predicate, RoleGeneric); err != nil {
		return ids, err
	}
	if ids.o, err = s.Intern(ctx, q.Object.Value, RoleObject); err != nil {
		return ids, err
	}
	if ld := q.Object.LangOrDatatype(); ld != "" {
		if ids.langDT, err = s.Intern(ctx, ld, RoleGeneric); err != nil {
			return ids, err
		}
	}
	if ids.g, err = s.Intern(ctx, q.Graph, RoleGeneric); err != nil {
		return ids, err
	}
	ids.sType, ids.oType = q.Subject.Kind, q.Object.Kind
	return ids, nil
}

func (s *Store) findTriple(ctx context.Context, tbl string, ids quadIDs) (int64, error) {
	row, err := s.adapter.FetchRow(ctx,
		"SELECT t FROM "+tbl+" WHERE s = ? AND p = ? AND o = ? AND o_lang_dt = ? AND s_type = ? AND o_type = ? LIMIT 1",
		ids.s, ids.p, ids.o, ids.langDT, int(ids.sType), int(ids.oType))
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "probing triple", quadrelerr.FieldTable(tbl))
	}
	if row == nil {
		return 0, nil
	}
	return row.Int64("t"), nil
}

func (s *Store) maxTripleID(ctx context.Context, split []string) (int64, error) {
	tables := []string{s.table("triple")}
	for _, p := range split {
		tables = append(tables, s.table(SplitTableName(p)))
	}
	var highest int64
	for _, tbl := range tables {
		row, err := s.adapter.FetchRow(ctx, "SELECT MAX(t) AS m FROM "+tbl)
		if err != nil {
			return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "reading triple ids",
				quadrelerr.FieldTable(tbl))
		}
		if row != nil && row.Int64("m") > highest {
			highest = row.Int64("m")
		}
	}
	return highest, nil
}

// DeleteGraph removes every quad of graph and returns how many were removed.
// Triples no longer placed in any graph are deleted as well.
func (s *Store) DeleteGraph(ctx context.Context, graph string) (int64, error) {
	if graph == "" {
		return 0, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "graph is empty")
	}
	g, ok, err := s.Resolve(ctx, graph, RoleGeneric)
	if err != nil || !ok {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	g2t := s.table("g2t")
	res, err := s.adapter.Exec(ctx, "DELETE FROM "+g2t+" WHERE g = ?", g)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "deleting graph membership",
			quadrelerr.Field("graph", graph))
	}

	tables, err := s.tripleTables(ctx)
	if err != nil {
		return res.RowsAffected, err
	}
	for _, tbl := range tables {
		_, err := s.adapter.Exec(ctx, "DELETE FROM "+tbl+" WHERE t NOT IN (SELECT t FROM "+g2t+")")
		if err != nil {
			return res.RowsAffected, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "deleting orphaned triples",
				quadrelerr.FieldTable(tbl))
		}
	}
	s.forgetLabels()
	return res.RowsAffected, nil
}

// DeleteQuads removes the given quads and returns how many graph
// memberships were removed. Unknown quads are skipped.
func (s *Store) DeleteQuads(ctx context.Context, quads []rdf.Quad) (int64, error) {
	for _, q := range quads {
		if err := q.Validate(); err != nil {
			return 0, err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "reading split registry")
	}

	g2t := s.table("g2t")
	var removed int64
	for _, q := range quads {
		ids, ok, err := s.lookupQuad(ctx, q)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		tbl := s.tripleTableFor(split, q.Predicate)
		t, err := s.findTriple(ctx, tbl, ids)
		if err != nil {
			return removed, err
		}
		if t == 0 {
			continue
		}

		res, err := s.adapter.Exec(ctx, "DELETE FROM "+g2t+" WHERE g = ? AND t = ?", ids.g, t)
		if err != nil {
			return removed, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "deleting graph membership")
		}
		removed += res.RowsAffected

		_, err = s.adapter.Exec(ctx, "DELETE FROM "+tbl+" WHERE t = ? AND t NOT IN (SELECT t FROM "+g2t+")", t)
		if err != nil {
			return removed, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "deleting orphaned triple",
				quadrelerr.FieldTable(tbl))
		}
	}
	if removed > 0 {
		s.forgetLabels()
	}
	return removed, nil
}

// lookupQuad resolves the ids of q without interning; ok is false when any
// term is unknown.
func (s *Store) lookupQuad(ctx context.Context, q rdf.Quad) (quadIDs, bool, error) {
	type lookup struct {
		dst   *int64
		value string
		role  Role
	}
	ids := quadIDs{sType: q.Subject.Kind, oType: q.Object.Kind}
	lookups := []lookup{
		{&ids.s, q.Subject.Value, RoleSubject},
		{&ids.p, q.Predicate, RoleGeneric},
		{&ids.o, q.Object.Value, RoleObject},
		{&ids.g, q.Graph, RoleGeneric},
	}
	if ld := q.Object.LangOrDatatype(); ld != "" {
		lookups = append(lookups, lookup{&ids.langDT, ld, RoleGeneric})
	}
	for _, l := range lookups {
		id, ok, err := s.Resolve(ctx, l.value, l.role)
		if err != nil || !ok {
			return ids, false, err
		}
		*l.dst = id
	}
	return ids, true, nil
}

type tripleRow struct {
	t, g int64
	quad rdf.Quad
}

// Match returns the quads selected by p ordered by insertion. Triples of
// split predicates are read from their own tables.
func (s *Store) Match(ctx context.Context, p Pattern) ([]rdf.Quad, error) {
	var where []string
	var args []any
	bind := func(col string, id int64) {
		where = append(where, col+" = ?")
		args = append(args, id)
	}

	if p.Subject != nil {
		id, ok, err := s.Resolve(ctx, p.Subject.Value, RoleSubject)
		if err != nil || !ok {
			return nil, err
		}
		bind("T.s", id)
		bind("T.s_type", int64(p.Subject.Kind))
	}
	var pid int64
	if p.Predicate != "" {
		id, ok, err := s.Resolve(ctx, p.Predicate, RoleGeneric)
		if err != nil || !ok {
			return nil, err
		}
		pid = id
		bind("T.p", id)
	}
	if p.Object != nil {
		id, ok, err := s.Resolve(ctx, p.Object.Value, RoleObject)
		if err != nil || !ok {
			return nil, err
		}
		bind("T.o", id)
		bind("T.o_type", int64(p.Object.Kind))
		var ld int64
		if v := p.Object.LangOrDatatype(); v != "" {
			if ld, ok, err = s.Resolve(ctx, v, RoleGeneric); err != nil || !ok {
				return nil, err
			}
		}
		bind("T.o_lang_dt", ld)
	}
	if p.Graph != "" {
		id, ok, err := s.Resolve(ctx, p.Graph, RoleGeneric)
		if err != nil || !ok {
			return nil, err
		}
		bind("G.g", id)
	}

	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "reading split registry")
	}
	var tables []string
	if pid != 0 {
		tables = []string{s.tripleTableFor(split, p.Predicate)}
	} else {
		tables = []string{s.table("triple")}
		for _, sp := range split {
			tables = append(tables, s.table(SplitTableName(sp)))
		}
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	terms := newTermReader(s)
	var out []tripleRow
	for _, tbl := range tables {
		rows, err := s.adapter.FetchRows(ctx,
			"SELECT T.t, T.s, T.p, T.o, T.o_lang_dt, T.s_type, T.o_type, G.g FROM "+tbl+" T JOIN "+
				s.table("g2t")+" G ON G.t = T.t"+cond, args...)
		if err != nil {
			return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "matching triples",
				quadrelerr.FieldTable(tbl))
		}
		for _, r := range rows {
			q, err := terms.quad(ctx, r)
			if err != nil {
				return nil, err
			}
			out = append(out, tripleRow{t: r.Int64("t"), g: r.Int64("g"), quad: q})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].t != out[j].t {
			return out[i].t < out[j].t
		}
		return out[i].g < out[j].g
	})
	quads := make([]rdf.Quad, len(out))
	for i, r := range out {
		quads[i] = r.quad
	}
	return quads, nil
}

// termReader dereferences ids with a per-call memo.
type termReader struct {
	s    *Store
	memo map[Role]map[int64]string
}

func newTermReader(s *Store) *termReader {
	return &termReader{s: s, memo: map[Role]map[int64]string{}}
}

func (r *termReader) value(ctx context.Context, id int64, role Role) (string, error) {
	if v, ok := r.memo[role][id]; ok {
		return v, nil
	}
	v, ok, err := r.s.Dereference(ctx, id, role)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", quadrelerr.New(quadrelerr.CodeStoreDictionaryFailure, "dangling term id",
			quadrelerr.Field("id", id), quadrelerr.Field("role", role.String()))
	}
	if r.memo[role] == nil {
		r.memo[role] = map[int64]string{}
	}
	r.memo[role][id] = v
	return v, nil
}

func (r *termReader) quad(ctx context.Context, row backend.Row) (rdf.Quad, error) {
	var q rdf.Quad
	sv, err := r.value(ctx, row.Int64("s"), RoleSubject)
	if err != nil {
		return q, err
	}
	pv, err := r.value(ctx, row.Int64("p"), RoleGeneric)
	if err != nil {
		return q, err
	}
	ov, err := r.value(ctx, row.Int64("o"), RoleObject)
	if err != nil {
		return q, err
	}
	gv, err := r.value(ctx, row.Int64("g"), RoleGeneric)
	if err != nil {
		return q, err
	}

	q.Subject = rdf.Term{Kind: rdf.Kind(row.Int64("s_type")), Value: sv}
	q.Predicate = pv
	q.Object = rdf.Term{Kind: rdf.Kind(row.Int64("o_type")), Value: ov}
	q.Graph = gv

	if ld := row.Int64("o_lang_dt"); ld != 0 {
		v, err := r.value(ctx, ld, RoleGeneric)
		if err != nil {
			return q, err
		}
		// Datatypes are IRIs; language tags never contain a colon.
		if strings.Contains(v, ":") {
			q.Object.Datatype = v
		} else {
			q.Object.Lang = v
		}
	}
	return q, nil
}

// Graphs returns the names of all graphs holding at least one quad.
func (s *Store) Graphs(ctx context.Context) ([]string, error) {
	rows, err := s.adapter.FetchRows(ctx, "SELECT DISTINCT g FROM "+s.table("g2t")+" ORDER BY g")
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "listing graphs")
	}
	terms := newTermReader(s)
	graphs := make([]string, 0, len(rows))
	for _, r := range rows {
		g, err := terms.value(ctx, r.Int64("g"), RoleGeneric)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
