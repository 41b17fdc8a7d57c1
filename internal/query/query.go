// Package query executes filter, join, aggregation, sort and pagination
// plans against one load session. Plans are built fluently but always run
// in a fixed order: filters, then joins, then aggregation, then sort, then
// offset/limit. The order is part of the contract, so a limit counts
// post-aggregation rows no matter how the plan was assembled, and two plans
// built by different call orders return identical rows.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/registry"
	"github.com/shiftdb/shiftdb/internal/schema"
	"github.com/shiftdb/shiftdb/pkg"
)

type joinSpec struct {
	name string
	left bool
}

// resolvedJoin is a join bound to one declared relationship, read in the
// direction that starts at the base table.
type resolvedJoin struct {
	spec       joinSpec
	key        string
	localField string
	table      string
	field      string
}

func (j resolvedJoin) String() string {
	kind := "join"
	if j.spec.left {
		kind = "left join"
	}
	return fmt.Sprintf("%s %s via %s", kind, j.table, j.key)
}

type plan struct {
	desc     *schema.Table
	filters  []Filter
	programs []*vm.Program
	joins    []resolvedJoin
	columns  []string
}

type Query struct {
	session    *registry.Session
	table      string
	filters    []Filter
	exprs      []string
	joins      []joinSpec
	groupings  []string
	measures   []Aggregate
	order      string
	descending bool
	ordered    bool
	offset     int
	limit      int
	limited    bool
}

// New starts an empty plan over a load session.
func New(session *registry.Session) *Query {
	return &Query{session: session}
}

// From sets the base table.
func (q *Query) From(table string) *Query {
	q.table = strings.ToUpper(table)
	return q
}

// Where appends a filter on a base-table field.
func (q *Query) Where(field string, op Op, value any) *Query {
	q.filters = append(q.filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// WhereFuzzy filters by approximate match with its own similarity threshold.
func (q *Query) WhereFuzzy(field string, value any, threshold float64) *Query {
	q.filters = append(q.filters, Filter{Field: field, Op: Fuzzy, Value: value, Threshold: threshold})
	return q
}

// WhereFilter appends prebuilt filters, e.g. from ParseFilter.
func (q *Query) WhereFilter(filters ...Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// WhereExpr filters rows with a boolean expression over the base record's
// fields, e.g. "ID > 10 && NAME != ''". Field names are available in upper
// and lower case.
func (q *Query) WhereExpr(src string) *Query {
	q.exprs = append(q.exprs, src)
	return q
}

// Join narrows rows to those with a match through a declared relationship
// and attaches each matched record under the joined table's name, one
// output row per match. The relationship is named by its declared name, by
// its owner-qualified form "5ABSEN.employee", or by the other table's name
// when exactly one relationship connects the two tables.
func (q *Query) Join(name string) *Query {
	q.joins = append(q.joins, joinSpec{name: name})
	return q
}

// LeftJoin joins like Join but keeps base rows without a match.
func (q *Query) LeftJoin(name string) *Query {
	q.joins = append(q.joins, joinSpec{name: name, left: true})
	return q
}

// GroupBy collapses rows by the named fields. Without measures the result
// is one row per distinct key.
func (q *Query) GroupBy(fields ...string) *Query {
	q.groupings = append(q.groupings, fields...)
	return q
}

// Aggregate adds a measure computed per group, exposed under alias.
func (q *Query) Aggregate(measure Measure, field, alias string) *Query {
	q.measures = append(q.measures, Aggregate{Measure: measure, Field: field, Alias: alias})
	return q
}

// OrderBy sorts rows by a field, or by a group field or alias when the plan
// aggregates. Ties keep record order.
func (q *Query) OrderBy(field string, descending bool) *Query {
	q.order, q.descending, q.ordered = field, descending, true
	return q
}

func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit, q.limited = n, true
	return q
}

func (q *Query) aggregated() bool {
	return len(q.groupings) > 0 || len(q.measures) > 0
}

// Execute validates the whole plan against the catalog, then runs it. A
// plan referencing anything the catalog does not declare, or carrying
// negative pagination, is rejected before any row is read, so a bad plan
// never returns a partial result.
func (q *Query) Execute(ctx context.Context) (*Result, error) {
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, queryError("execute", "%s", err)
	}

	p, err := q.validate()
	if err != nil {
		return nil, err
	}

	base, err := q.session.Table(q.table)
	if err != nil {
		return nil, err
	}

	applied := []string{"from " + q.table}
	for _, filter := range p.filters {
		applied = append(applied, "where "+filter.String())
	}
	for _, src := range q.exprs {
		applied = append(applied, "where expr "+src)
	}

	rows := q.scanBase(base, p)

	for _, join := range p.joins {
		applied = append(applied, join.String())
		rows, err = q.applyJoin(rows, join)
		if err != nil {
			return nil, err
		}
	}

	if q.aggregated() {
		if len(q.groupings) > 0 {
			applied = append(applied, "group by "+strings.Join(q.groupings, ", "))
		}
		for _, agg := range q.measures {
			applied = append(applied, "aggregate "+agg.String())
		}
		rows = aggregateRows(rows, q.groupings, q.measures)
	}

	if q.ordered {
		direction := "asc"
		if q.descending {
			direction = "desc"
		}
		applied = append(applied, fmt.Sprintf("order by %s %s", q.order, direction))
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := compareOperand(rows[i].Get(q.order), rows[j].Get(q.order))
			if q.descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.offset > 0 {
		applied = append(applied, fmt.Sprintf("offset %d", q.offset))
		if q.offset >= len(rows) {
			rows = []Row{}
		} else {
			rows = rows[q.offset:]
		}
	}
	if q.limited {
		applied = append(applied, fmt.Sprintf("limit %d", q.limit))
		if q.limit < len(rows) {
			rows = rows[:q.limit]
		}
	}

	return &Result{
		table:    q.table,
		columns:  p.columns,
		rows:     rows,
		applied:  applied,
		duration: time.Since(started),
	}, nil
}

func (q *Query) scanBase(base *record.LoadedTable, p *plan) []Row {
	rows := []Row{}
	base.Scan(func(rec record.Record) bool {
		for _, filter := range p.filters {
			if !filter.Match(rec) {
				return true
			}
		}
		for _, program := range p.programs {
			out, err := expr.Run(program, exprEnv(p.desc, rec))
			if err != nil {
				return true
			}
			if matched, ok := out.(bool); !ok || !matched {
				return true
			}
		}
		rows = append(rows, Row{Record: rec})
		return true
	})
	return rows
}

func (q *Query) applyJoin(rows []Row, join resolvedJoin) ([]Row, error) {
	joined_table, err := q.session.Table(join.table)
	if err != nil {
		return nil, err
	}

	index, indexed := q.session.Indexes().Field(join.table, join.field)

	out := []Row{}
	for _, row := range rows {
		var positions []int
		if indexed {
			positions = index.Lookup(row.Record.Get(join.localField))
		}
		if len(positions) == 0 {
			if join.spec.left {
				out = append(out, row)
			}
			continue
		}
		for _, pos := range positions {
			match, ok := joined_table.Get(pos)
			if !ok {
				continue
			}
			out = append(out, row.attach(join.table, match))
		}
	}
	return out, nil
}

func (q *Query) validate() (*plan, error) {
	if q.table == "" {
		return nil, queryError("from", "no base table selected")
	}
	catalog := q.session.Catalog()
	desc, err := catalog.Resolve(q.table)
	if err != nil {
		return nil, queryError("from", "unknown table %s", q.table)
	}

	p := &plan{desc: desc}

	for _, spec := range q.joins {
		join, qerr := q.resolveJoin(desc, spec)
		if qerr != nil {
			return nil, qerr
		}
		if join.table == q.table {
			return nil, queryError("join", "relationship %s joins %s to itself", join.key, q.table)
		}
		for _, prev := range p.joins {
			if prev.table == join.table {
				return nil, queryError("join", "table %s is already joined", join.table)
			}
		}
		p.joins = append(p.joins, join)
	}

	for _, filter := range q.filters {
		name, qerr := q.checkField(p.joins, filter.Field, "where", true)
		if qerr != nil {
			return nil, qerr
		}
		filter.Field = name
		if qerr := validateFilter(filter); qerr != nil {
			return nil, qerr
		}
		p.filters = append(p.filters, filter)
	}

	for _, src := range q.exprs {
		program, err := expr.Compile(src, expr.Env(exprEnv(desc, record.Record{})))
		if err != nil {
			return nil, queryError("where", "bad expression %q: %s", src, err)
		}
		p.programs = append(p.programs, program)
	}

	for _, field := range q.groupings {
		if _, qerr := q.checkField(p.joins, field, "group by", false); qerr != nil {
			return nil, qerr
		}
	}

	aliases := pkg.Map[string, bool]{}
	for _, agg := range q.measures {
		switch agg.Measure {
		case Count, Sum, Avg, Min, Max:
		default:
			return nil, queryError("aggregate", "unknown measure %q", agg.Measure)
		}
		if agg.Alias == "" {
			return nil, queryError("aggregate", "%s(%s) needs an alias", agg.Measure, agg.Field)
		}
		alias := strings.ToUpper(agg.Alias)
		if aliases.Has(alias) {
			return nil, queryError("aggregate", "alias %s is used twice", agg.Alias)
		}
		aliases.Set(alias, true)

		if agg.Measure == Count && agg.Field == "" {
			continue
		}
		field, qerr := q.lookupField(p.joins, agg.Field, "aggregate", false)
		if qerr != nil {
			return nil, qerr
		}
		if agg.Measure != Count && !field.Type.Numeric() {
			return nil, queryError("aggregate", "%s needs a numeric field, %s is %s", agg.Measure, agg.Field, field.Type)
		}
	}

	if q.ordered {
		if qerr := q.checkOrder(p.joins); qerr != nil {
			return nil, qerr
		}
	}

	if q.offset < 0 {
		return nil, queryError("offset", "cannot be negative, got %d", q.offset)
	}
	if q.limited && q.limit < 0 {
		return nil, queryError("limit", "cannot be negative, got %d", q.limit)
	}

	p.columns = q.planColumns(p)
	return p, nil
}

// resolveJoin binds a join name to a declared relationship touching the
// base table.
func (q *Query) resolveJoin(base *schema.Table, spec joinSpec) (resolvedJoin, *QueryError) {
	catalog := q.session.Catalog()

	if owner_name, rel_name, qualified := strings.Cut(spec.name, "."); qualified {
		owner, err := catalog.Resolve(owner_name)
		if err != nil {
			return resolvedJoin{}, queryError("join", "unknown table %s", owner_name)
		}
		for _, rel := range owner.Relations {
			if strings.EqualFold(rel.Name, rel_name) {
				return bindJoin(base, owner, rel, spec)
			}
		}
		return resolvedJoin{}, queryError("join", "table %s declares no relationship %q", owner.Name, rel_name)
	}

	for _, rel := range base.Relations {
		if strings.EqualFold(rel.Name, spec.name) {
			return bindJoin(base, base, rel, spec)
		}
	}

	// the other table's name, when exactly one relationship connects them
	other := strings.ToUpper(spec.name)
	type candidate struct {
		owner *schema.Table
		rel   schema.Relation
	}
	matches := []candidate{}
	for _, rel := range base.Relations {
		if rel.Target == other {
			matches = append(matches, candidate{base, rel})
		}
	}
	if other_desc, err := catalog.Resolve(other); err == nil {
		for _, rel := range other_desc.Relations {
			if rel.Target == base.Name {
				matches = append(matches, candidate{other_desc, rel})
			}
		}
	}

	switch len(matches) {
	case 1:
		return bindJoin(base, matches[0].owner, matches[0].rel, spec)
	case 0:
		return resolvedJoin{}, queryError("join", "no declared relationship connects %s and %s", base.Name, spec.name)
	}
	return resolvedJoin{}, queryError("join", "%d relationships connect %s and %s, join one by name", len(matches), base.Name, spec.name)
}

func bindJoin(base, owner *schema.Table, rel schema.Relation, spec joinSpec) (resolvedJoin, *QueryError) {
	join := resolvedJoin{spec: spec, key: rel.Key(owner.Name)}
	switch base.Name {
	case owner.Name:
		join.localField, join.table, join.field = rel.Field, rel.Target, rel.TargetField
	case rel.Target:
		join.localField, join.table, join.field = rel.TargetField, owner.Name, rel.Field
	default:
		return resolvedJoin{}, queryError("join", "relationship %s does not touch %s", join.key, base.Name)
	}
	return join, nil
}

// checkField validates a possibly qualified field reference and returns it
// with a base-table qualifier stripped, so filters can read records
// directly.
func (q *Query) checkField(joins []resolvedJoin, ref, op string, base_only bool) (string, *QueryError) {
	table_name, field_name, qualified := strings.Cut(ref, ".")
	if !qualified {
		table_name, field_name = q.table, ref
	}
	table_name = strings.ToUpper(table_name)

	if table_name != q.table {
		if base_only {
			return "", queryError(op, "field %s: filters read the base table %s", ref, q.table)
		}
		joined := false
		for _, join := range joins {
			if join.table == table_name {
				joined = true
				break
			}
		}
		if !joined {
			return "", queryError(op, "field %s references a table the plan does not join", ref)
		}
	}

	desc, err := q.session.Catalog().Resolve(table_name)
	if err != nil {
		return "", queryError(op, "unknown table %s", table_name)
	}
	if _, ok := desc.Field(field_name); !ok {
		return "", queryError(op, "table %s has no field %s", table_name, strings.ToUpper(field_name))
	}

	if table_name == q.table {
		return field_name, nil
	}
	return ref, nil
}

func (q *Query) lookupField(joins []resolvedJoin, ref, op string, base_only bool) (*schema.Field, *QueryError) {
	if _, qerr := q.checkField(joins, ref, op, base_only); qerr != nil {
		return nil, qerr
	}
	table_name, field_name, qualified := strings.Cut(ref, ".")
	if !qualified {
		table_name, field_name = q.table, ref
	}
	desc, err := q.session.Catalog().Resolve(table_name)
	if err != nil {
		return nil, queryError(op, "unknown table %s", table_name)
	}
	field, _ := desc.Field(field_name)
	return field, nil
}

// checkOrder validates the sort key. Under aggregation only group fields
// and aliases exist to sort on.
func (q *Query) checkOrder(joins []resolvedJoin) *QueryError {
	if !q.aggregated() {
		_, qerr := q.checkField(joins, q.order, "order by", false)
		return qerr
	}
	for _, field := range q.groupings {
		if strings.EqualFold(field, q.order) {
			return nil
		}
	}
	for _, agg := range q.measures {
		if strings.EqualFold(agg.Alias, q.order) {
			return nil
		}
	}
	return queryError("order by", "%s is neither a group field nor an alias", q.order)
}

func validateFilter(f Filter) *QueryError {
	switch f.Op {
	case Eq, Ne, Gt, Lt, Ge, Le, Contains, StartsWith, EndsWith, IsNull, NotNull:
	case Between:
		if bounds, ok := f.Value.([]any); !ok || len(bounds) != 2 {
			return queryError("where", "between on %s needs a low and a high bound", f.Field)
		}
	case In, NotIn:
		if _, ok := f.Value.([]any); !ok {
			return queryError("where", "%s on %s needs a list of values", f.Op, f.Field)
		}
	case Fuzzy:
		if f.Threshold < 0 || f.Threshold > 1 {
			return queryError("where", "fuzzy threshold %v is outside (0, 1]", f.Threshold)
		}
	default:
		return queryError("where", "unknown operator %q", f.Op)
	}
	return nil
}

func (q *Query) planColumns(p *plan) []string {
	if q.aggregated() {
		columns := []string{}
		for _, field := range q.groupings {
			columns = append(columns, strings.ToUpper(field))
		}
		for _, agg := range q.measures {
			columns = append(columns, agg.Alias)
		}
		return columns
	}

	columns := p.desc.FieldNames()
	for _, join := range p.joins {
		desc, err := q.session.Catalog().Resolve(join.table)
		if err != nil {
			continue
		}
		for _, name := range desc.FieldNames() {
			columns = append(columns, join.table+"."+name)
		}
	}
	return columns
}

// exprEnv maps every base field, upper and lower case, to its value in rec.
func exprEnv(desc *schema.Table, rec record.Record) map[string]any {
	env := make(map[string]any, desc.Fields.Len()*2)
	for _, name := range desc.FieldNames() {
		value := rec.Get(name)
		env[name] = value
		env[strings.ToLower(name)] = value
	}
	return env
}

// QueryError reports a plan the catalog cannot satisfy. It is always
// returned before execution starts.
type QueryError struct {
	Op     string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %s", e.Op, e.Reason)
}

func queryError(op string, format string, args ...any) *QueryError {
	return &QueryError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
