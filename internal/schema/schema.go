package schema

import (
	"fmt"
	"strings"

	"github.com/shiftdb/shiftdb/internal/types"
	"github.com/shiftdb/shiftdb/pkg"
)

type Field struct {
	Name string
	Type types.FieldType
}

type RelationType string

const (
	OneToOne   RelationType = "1:1"
	OneToMany  RelationType = "1:N"
	ManyToOne  RelationType = "N:1"
	ManyToMany RelationType = "N:N"
)

func (t RelationType) IsValid() bool {
	switch t {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// Relation declares that Field on the owning table references
// TargetField on the Target table.
type Relation struct {
	Name        string
	Field       string
	Target      string
	TargetField string
	Type        RelationType
}

// Key returns the catalog-wide name of a relation, e.g. "5ABSEN.employee".
func (r Relation) Key(owner string) string {
	return owner + "." + r.Name
}

type Table struct {
	Name      string
	File      string
	Fields    *pkg.InsertSortMap[string, *Field]
	Required  []string
	Optional  bool
	Relations []Relation
}

// NewTable builds a descriptor with fields in declaration order. Field names
// are normalized to upper case, matching how they appear in table files.
func NewTable(name string, fields ...Field) *Table {
	t := &Table{
		Name:   strings.ToUpper(name),
		File:   strings.ToUpper(name),
		Fields: pkg.NewInsertSortMap[string, *Field](),
	}
	for _, f := range fields {
		f := f
		f.Name = strings.ToUpper(f.Name)
		t.Fields.Push(f.Name, &f)
	}
	return t
}

func (t *Table) Field(name string) (*Field, bool) {
	name = strings.ToUpper(name)
	if !t.Fields.Has(name) {
		return nil, false
	}
	return t.Fields.Get(name), true
}

func (t *Table) FieldNames() []string {
	return append([]string{}, t.Fields.Sorted...)
}

// Dependencies lists the distinct tables this table references, in relation
// declaration order. A table referencing itself does not depend on itself.
func (t *Table) Dependencies() []string {
	seen := pkg.Map[string, bool]{}
	deps := []string{}
	for _, rel := range t.Relations {
		if rel.Target == t.Name || seen.Has(rel.Target) {
			continue
		}
		seen.Set(rel.Target, true)
		deps = append(deps, rel.Target)
	}
	return deps
}

func (t *Table) Relation(name string) (Relation, bool) {
	for _, rel := range t.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// Catalog holds every registered table descriptor. It is built once at
// startup, finished, and read-only from then on.
type Catalog struct {
	tables   *pkg.InsertSortMap[string, *Table]
	finished bool
}

func NewCatalog() *Catalog {
	return &Catalog{tables: pkg.NewInsertSortMap[string, *Table]()}
}

func (c *Catalog) Register(t *Table) error {
	if c.finished {
		return NewSchemaError(t.Name, "catalog is finished")
	}
	if c.tables.Has(t.Name) {
		return NewSchemaError(t.Name, fmt.Sprintf("table %s already registered", t.Name))
	}
	c.tables.Push(t.Name, t)
	return nil
}

func (c *Catalog) Resolve(name string) (*Table, error) {
	name = strings.ToUpper(name)
	if !c.tables.Has(name) {
		return nil, NewSchemaError(name, fmt.Sprintf("table %s not registered", name))
	}
	return c.tables.Get(name), nil
}

func (c *Catalog) Has(name string) bool {
	return c.tables.Has(strings.ToUpper(name))
}

func (c *Catalog) Len() int { return c.tables.Len() }

// Tables returns all table names in declaration order.
func (c *Catalog) Tables() []string {
	return append([]string{}, c.tables.Sorted...)
}

// Relation resolves a catalog-wide relation key of the form "TABLE.name".
func (c *Catalog) Relation(key string) (*Table, Relation, bool) {
	table_name, rel_name, found := strings.Cut(key, ".")
	if !found || !c.tables.Has(strings.ToUpper(table_name)) {
		return nil, Relation{}, false
	}
	table := c.tables.Get(strings.ToUpper(table_name))
	rel, ok := table.Relation(rel_name)
	if !ok {
		return nil, Relation{}, false
	}
	return table, rel, true
}

// RelationsInto lists every relation in the catalog whose target is the
// given table, in declaration order.
func (c *Catalog) RelationsInto(target string) []RelationRef {
	target = strings.ToUpper(target)
	refs := []RelationRef{}
	for _, name := range c.tables.Sorted {
		table := c.tables.Get(name)
		for _, rel := range table.Relations {
			if rel.Target == target {
				refs = append(refs, RelationRef{Owner: table, Relation: rel})
			}
		}
	}
	return refs
}

// RelationRef pairs a relation with the table that declares it.
type RelationRef struct {
	Owner    *Table
	Relation Relation
}

func (r RelationRef) Key() string { return r.Relation.Key(r.Owner.Name) }

// Finish validates the whole catalog and seals it. Every violation is
// collected so a bad configuration reports all of its problems at once.
func (c *Catalog) Finish() error {
	violations := []string{}

	for _, name := range c.tables.Sorted {
		table := c.tables.Get(name)

		for i, rel := range table.Relations {
			rel.Field = strings.ToUpper(rel.Field)
			rel.Target = strings.ToUpper(rel.Target)
			rel.TargetField = strings.ToUpper(rel.TargetField)
			table.Relations[i] = rel
		}

		for _, required := range table.Required {
			if _, ok := table.Field(required); !ok {
				violations = append(violations,
					fmt.Sprintf("%s: required field %s is not declared", name, required))
			}
		}

		seen := pkg.Map[string, bool]{}
		for _, rel := range table.Relations {
			if rel.Name == "" {
				violations = append(violations, fmt.Sprintf("%s: relation with empty name", name))
				continue
			}
			if seen.Has(rel.Name) {
				violations = append(violations,
					fmt.Sprintf("%s: duplicate relation name %s", name, rel.Name))
				continue
			}
			seen.Set(rel.Name, true)
			violations = append(violations, c.validateRelation(table, rel)...)
		}
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	c.finished = true
	return nil
}

func (c *Catalog) validateRelation(table *Table, rel Relation) []string {
	invalid := func(reason string) string {
		return fmt.Sprintf("%s: invalid relation %s between %s and %s; %s",
			table.Name, rel.Name, table.Name, rel.Target, reason)
	}

	violations := []string{}

	if !rel.Type.IsValid() {
		violations = append(violations, invalid(fmt.Sprintf("%q is not a valid cardinality", string(rel.Type))))
	}

	local, local_ok := table.Field(rel.Field)
	if !local_ok {
		violations = append(violations,
			invalid(fmt.Sprintf("%q is not a valid field on table %s", rel.Field, table.Name)))
	}

	if !c.tables.Has(rel.Target) {
		violations = append(violations, invalid(fmt.Sprintf("%q is not a valid table", rel.Target)))
		return violations
	}

	target_field, target_ok := c.tables.Get(rel.Target).Field(rel.TargetField)
	if !target_ok {
		violations = append(violations,
			invalid(fmt.Sprintf("%q is not a valid field on table %s", rel.TargetField, rel.Target)))
		return violations
	}

	if local_ok && local.Type != target_field.Type {
		if !local.Type.Numeric() || !target_field.Type.Numeric() {
			violations = append(violations, invalid("field types must match"))
		}
	}

	return violations
}

type SchemaError struct {
	Table      string
	Violations []string
}

func NewSchemaError(table string, violations ...string) *SchemaError {
	return &SchemaError{Table: table, Violations: violations}
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return "schema: " + e.Violations[0]
	}
	return fmt.Sprintf("schema: %d violations: %s", len(e.Violations), strings.Join(e.Violations, "; "))
}
