package query

import (
	"strings"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/types"
	"github.com/shiftdb/shiftdb/pkg"
)

type Measure string

const (
	Count Measure = "count"
	Sum   Measure = "sum"
	Avg   Measure = "avg"
	Min   Measure = "min"
	Max   Measure = "max"
)

// Aggregate is one named measure computed per group. Count with an empty
// field counts rows; with a field it counts non-nil values. Sum and Avg
// yield float64, Min and Max yield the winning value itself.
type Aggregate struct {
	Measure Measure
	Field   string
	Alias   string
}

func (a Aggregate) String() string {
	return string(a.Measure) + "(" + a.Field + ") as " + a.Alias
}

type group struct {
	rows []Row
}

// aggregateRows collapses rows into one row per distinct group key, in first
// seen order. Without group fields every row lands in a single group, so a
// plain global aggregate yields exactly one row even over no input.
func aggregateRows(rows []Row, group_by []string, aggregates []Aggregate) []Row {
	if len(rows) == 0 && len(group_by) == 0 {
		values := record.Values{}
		for _, agg := range aggregates {
			values.Set(strings.ToUpper(agg.Alias), measure(nil, agg))
		}
		return []Row{{Agg: values}}
	}

	keys := []string{}
	groups := pkg.Map[string, *group]{}

	for _, row := range rows {
		parts := make([]string, len(group_by))
		for i, field := range group_by {
			parts[i] = types.FormatKey(row.Get(field))
		}
		key := strings.Join(parts, "\x1f")
		if !groups.Has(key) {
			groups.Set(key, &group{})
			keys = append(keys, key)
		}
		g := groups.Get(key)
		g.rows = append(g.rows, row)
	}

	out := make([]Row, 0, len(keys))
	for _, key := range keys {
		g := groups.Get(key)
		values := record.Values{}
		for _, field := range group_by {
			values.Set(strings.ToUpper(field), g.rows[0].Get(field))
		}
		for _, agg := range aggregates {
			values.Set(strings.ToUpper(agg.Alias), measure(g.rows, agg))
		}
		out = append(out, Row{Agg: values})
	}
	return out
}

// measure folds one aggregate over a group. Nil values are skipped; a
// numeric measure over only nil values is nil, never zero.
func measure(rows []Row, agg Aggregate) any {
	if agg.Measure == Count {
		if agg.Field == "" {
			return int64(len(rows))
		}
		count := int64(0)
		for _, row := range rows {
			if row.Get(agg.Field) != nil {
				count++
			}
		}
		return count
	}

	sum, count := 0.0, 0
	var lowest, highest any
	for _, row := range rows {
		value := row.Get(agg.Field)
		if value == nil {
			continue
		}
		if num, ok := pkg.NumToFloat(value); ok {
			sum += num
		}
		if lowest == nil || types.Compare(value, lowest) < 0 {
			lowest = value
		}
		if highest == nil || types.Compare(value, highest) > 0 {
			highest = value
		}
		count++
	}
	if count == 0 {
		return nil
	}

	switch agg.Measure {
	case Sum:
		return sum
	case Avg:
		return sum / float64(count)
	case Min:
		return lowest
	case Max:
		return highest
	}
	return nil
}
