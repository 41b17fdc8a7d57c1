package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shiftdb/shiftdb/internal/query"
	"github.com/shiftdb/shiftdb/internal/registry"
	"github.com/shiftdb/shiftdb/internal/types"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] source_dir",
	Short: "Run a filter, join and aggregation query against a planning directory.",
	Long: `Run a query against the tables in source_dir. Filters read the base table,
joins follow relationships the catalog declares, and aggregation collapses
rows per group. Plans always run filters, joins, aggregation, sort and
offset/limit in that order.

Examples:
  shiftdb query ./data -t 5EMPL -w 'name contains "Muster"' --join 5ABSEN
  shiftdb query ./data -t 5ABSEN --group-by EMPLOYEEID --agg count::absences --agg sum:HRS:hours
  shiftdb query ./data -t 5EMPL --expr 'hrsday >= 7 && !hide' --order-by NAME --limit 10`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		q := buildQuery(cmd, openSession(cmd, args[0]))
		result, err := q.Execute(cmd.Context())
		if err != nil {
			fail(err)
		}
		for _, step := range result.Provenance() {
			log.Debugf("plan: %s", step)
		}
		printResult(result)
	},
}

func buildQuery(cmd *cobra.Command, session *registry.Session) *query.Query {
	q := query.New(session).From(getString(cmd, "table"))

	for _, clause := range getStringArray(cmd, "where") {
		filter, err := query.ParseFilter(clause)
		if err != nil {
			fail(err)
		}
		q.WhereFilter(filter)
	}
	for _, src := range getStringArray(cmd, "expr") {
		q.WhereExpr(src)
	}
	for _, name := range getStringArray(cmd, "join") {
		q.Join(name)
	}
	for _, name := range getStringArray(cmd, "left-join") {
		q.LeftJoin(name)
	}
	if fields := getStringSlice(cmd, "group-by"); len(fields) > 0 {
		q.GroupBy(fields...)
	}
	for _, spec := range getStringArray(cmd, "agg") {
		measure, field, alias, err := parseAggregate(spec)
		if err != nil {
			fail(err)
		}
		q.Aggregate(measure, field, alias)
	}
	if field := getString(cmd, "order-by"); field != "" {
		q.OrderBy(field, getFlag(cmd, "desc"))
	}
	if offset := getInt(cmd, "offset"); offset != 0 {
		q.Offset(offset)
	}
	if cmd.Flags().Changed("limit") {
		q.Limit(getInt(cmd, "limit"))
	}
	return q
}

// parseAggregate reads measure:field:alias, e.g. "sum:HRS:hours". Count
// takes an empty field to count rows: "count::absences".
func parseAggregate(spec string) (query.Measure, string, string, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("aggregate %q: want measure:field:alias", spec)
	}
	return query.Measure(strings.ToLower(parts[0])), parts[1], parts[2], nil
}

func printResult(result *query.Result) {
	columns := result.Columns()
	width := cellWidth(len(columns))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	for _, row := range result.Rows() {
		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = clip(types.FormatKey(row.Get(column)), width)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Printf("\n%d rows in %s\n", result.Len(), result.Duration().Round(time.Microsecond))
}

// cellWidth splits the terminal width evenly across columns so wide text
// fields cannot push a row past the screen. Piped output is never clipped.
func cellWidth(columns int) int {
	fd := int(os.Stdout.Fd())
	if columns == 0 || !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 0
	}
	width = width/columns - 2
	if width < 8 {
		width = 8
	}
	return width
}

func clip(cell string, width int) string {
	if width <= 0 {
		return cell
	}
	runes := []rune(cell)
	if len(runes) <= width {
		return cell
	}
	return string(runes[:width-3]) + "..."
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("table", "t", "", "base table to read")
	queryCmd.Flags().StringArrayP("where", "w", nil, `filter clause, e.g. 'name contains "Muster"' (repeatable)`)
	queryCmd.Flags().StringArray("expr", nil, "boolean expression over base fields, e.g. 'id > 10' (repeatable)")
	queryCmd.Flags().StringArray("join", nil, "relationship or table to join (repeatable)")
	queryCmd.Flags().StringArray("left-join", nil, "join keeping base rows without a match (repeatable)")
	queryCmd.Flags().StringSlice("group-by", nil, "fields to group by")
	queryCmd.Flags().StringArray("agg", nil, "aggregate as measure:field:alias, e.g. sum:HRS:hours (repeatable)")
	queryCmd.Flags().String("order-by", "", "field, group field or alias to sort by")
	queryCmd.Flags().Bool("desc", false, "sort descending")
	queryCmd.Flags().Int("offset", 0, "rows to skip")
	queryCmd.Flags().Int("limit", 0, "maximum rows to return")
	queryCmd.Flags().String("cache", "", "decode cache directory")
	queryCmd.Flags().Int("workers", 0, "concurrent table loads per dependency level")
	queryCmd.Flags().StringSlice("tables", nil, "cap the load to these tables and their dependencies")
	queryCmd.MarkFlagRequired("table")
}
