package schema

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shiftdb/shiftdb/pkg"
)

// DependencyOrder returns every table name ordered so that a table comes
// after all tables it references. Ties are broken by declaration order.
// Self references are ignored. A cross-table cycle does not fail the
// catalog: its members keep their declaration order after the acyclic
// prefix, and a warning is logged.
func (c *Catalog) DependencyOrder() []string {
	in_degree := pkg.Map[string, int]{}
	for _, name := range c.tables.Sorted {
		in_degree.Set(name, len(c.dependenciesIn(name)))
	}

	order := make([]string, 0, c.tables.Len())
	placed := pkg.Map[string, bool]{}

	for len(order) < c.tables.Len() {
		progressed := false
		for _, name := range c.tables.Sorted {
			if placed.Has(name) || in_degree.Get(name) > 0 {
				continue
			}
			order = append(order, name)
			placed.Set(name, true)
			progressed = true
			for _, dependent := range c.tables.Sorted {
				if placed.Has(dependent) {
					continue
				}
				for _, dep := range c.dependenciesIn(dependent) {
					if dep == name {
						in_degree.Set(dependent, in_degree.Get(dependent)-1)
					}
				}
			}
			break
		}

		if !progressed {
			remaining := []string{}
			for _, name := range c.tables.Sorted {
				if !placed.Has(name) {
					remaining = append(remaining, name)
					placed.Set(name, true)
				}
			}
			log.Warnf("dependency cycle involving tables %s; keeping declaration order",
				strings.Join(remaining, ", "))
			order = append(order, remaining...)
		}
	}

	return order
}

// Levels partitions DependencyOrder into groups where no table depends on
// another table in the same or a later group. Each group can load
// concurrently once the groups before it are done.
func (c *Catalog) Levels() [][]string {
	depth := pkg.Map[string, int]{}
	max_depth := 0
	for _, name := range c.DependencyOrder() {
		d := 0
		for _, dep := range c.dependenciesIn(name) {
			if depth.Get(dep)+1 > d {
				d = depth.Get(dep) + 1
			}
		}
		depth.Set(name, d)
		if d > max_depth {
			max_depth = d
		}
	}

	levels := make([][]string, max_depth+1)
	for _, name := range c.tables.Sorted {
		d := depth.Get(name)
		levels[d] = append(levels[d], name)
	}
	return levels
}

// dependenciesIn filters a table's dependencies down to tables the catalog
// actually knows, so a cycle member missed by the fallback cannot wedge the
// sort on a dangling edge.
func (c *Catalog) dependenciesIn(name string) []string {
	table := c.tables.Get(name)
	if table == nil {
		return nil
	}
	return pkg.Filter(table.Dependencies(), func(dep string) bool {
		return c.tables.Has(dep)
	})
}
