package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Op", Pattern: `!=|>=|<=|[=<>]`},
	{Name: "Tilde", Pattern: `~`},
	{Name: "Punct", Pattern: `[\[\],]`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

var filterParser = participle.MustBuild[filterLine](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)

type filterLine struct {
	Field   string         `@Ident`
	Compare *compareClause `( @@`
	Between *betweenClause `| @@`
	In      *inClause      `| @@`
	Null    *nullClause    `| @@`
	Text    *textClause    `| @@`
	Similar *fuzzyClause   `| @@ )`
}

type compareClause struct {
	Op    string  `@Op`
	Value literal `@@`
}

type betweenClause struct {
	Low  literal `"between" @@`
	High literal `"and" @@`
}

type inClause struct {
	Not    bool      `@"not"?`
	Values []literal `"in" "[" @@ ("," @@)* "]"`
}

type nullClause struct {
	Not bool `"is" @"not"? "null"`
}

type textClause struct {
	Op    string `@("contains" | "startswith" | "endswith")`
	Value string `@String`
}

type fuzzyClause struct {
	Value     string   `Tilde @String`
	Threshold *float64 `@Number?`
}

type literal struct {
	Str  *string  `  @String`
	Num  *float64 `| @Number`
	Word *string  `| @("true" | "false" | "null")`
}

func (l literal) value() any {
	switch {
	case l.Str != nil:
		return unquote(*l.Str)
	case l.Num != nil:
		if num := *l.Num; num == math.Trunc(num) {
			return int64(num)
		}
		return *l.Num
	case l.Word != nil:
		switch strings.ToLower(*l.Word) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return nil
}

// ParseFilter reads one filter clause of the query DSL, e.g.:
//
//	name contains "Muster"
//	id in [1, 2, 3]
//	date between 20240101 and 20240131
//	name ~ "Mustermann" 0.8
//	leavetypid is not null
func ParseFilter(src string) (Filter, error) {
	line, err := filterParser.ParseString("", src)
	if err != nil {
		return Filter{}, queryError("where", "bad filter %q: %s", src, err)
	}
	return line.filter(), nil
}

func (l *filterLine) filter() Filter {
	f := Filter{Field: l.Field}
	switch {
	case l.Compare != nil:
		f.Op = Op(l.Compare.Op)
		f.Value = l.Compare.Value.value()
	case l.Between != nil:
		f.Op = Between
		f.Value = []any{l.Between.Low.value(), l.Between.High.value()}
	case l.In != nil:
		f.Op = In
		if l.In.Not {
			f.Op = NotIn
		}
		values := make([]any, len(l.In.Values))
		for i, v := range l.In.Values {
			values[i] = v.value()
		}
		f.Value = values
	case l.Null != nil:
		f.Op = IsNull
		if l.Null.Not {
			f.Op = NotNull
		}
	case l.Text != nil:
		f.Op = Op(strings.ToLower(l.Text.Op))
		f.Value = unquote(l.Text.Value)
	case l.Similar != nil:
		f.Op = Fuzzy
		f.Value = unquote(l.Similar.Value)
		if l.Similar.Threshold != nil {
			f.Threshold = *l.Similar.Threshold
		}
	}
	return f
}

func unquote(s string) string {
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return strings.Trim(s, `"`)
	}
	return unquoted
}
