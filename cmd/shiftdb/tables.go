package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// tablesCmd represents the tables command
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the catalog's tables in dependency order.",
	Long: `List every table the catalog declares, grouped into load levels: a table
always appears after the tables its relationships reference.`,
	Run: func(cmd *cobra.Command, args []string) {
		catalog := loadCatalog(cmd)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tTABLE\tFILE\tFIELDS\tRELATIONSHIPS")
		for level, names := range catalog.Levels() {
			for _, name := range names {
				table, err := catalog.Resolve(name)
				if err != nil {
					continue
				}
				rels := []string{}
				for _, rel := range table.Relations {
					rels = append(rels, fmt.Sprintf("%s -> %s.%s", rel.Name, rel.Target, rel.TargetField))
				}
				display := table.Name
				if table.Optional {
					display += " (optional)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s.DBF\t%d\t%s\n",
					level, display, table.File, table.Fields.Len(), strings.Join(rels, ", "))
			}
		}
		w.Flush()
		fmt.Printf("\n%d tables declared\n", catalog.Len())
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
