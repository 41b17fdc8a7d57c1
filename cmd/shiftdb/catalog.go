package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shiftdb/shiftdb/internal/schema"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate or export catalog configurations.",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [flags] config_file",
	Short: "Check a catalog config for violations.",
	Long: `Parse a YAML catalog config and run the whole-catalog validation. Every
violation is reported, not just the first.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		fmt.Printf("checking %s\n", args[0])
		config, err := schema.LoadConfig(args[0])
		if err != nil {
			fail(err)
		}

		catalog, err := config.Catalog()
		if err != nil {
			schema_err := &schema.SchemaError{}
			if errors.As(err, &schema_err) && len(schema_err.Violations) > 1 {
				for _, violation := range schema_err.Violations {
					fmt.Println("violation:", violation)
				}
				os.Exit(1)
			}
			fail(err)
		}

		relations := 0
		for _, name := range catalog.Tables() {
			if table, err := catalog.Resolve(name); err == nil {
				relations += len(table.Relations)
			}
		}
		fmt.Printf("catalog is valid: %d tables, %d relationships\n", catalog.Len(), relations)
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [flags]",
	Short: "Write the active catalog as a YAML config.",
	Long: `Render the built-in catalog, or the one given via --catalog, as a config
file. Deployments with extra or diverging tables start from this dump.`,
	Run: func(cmd *cobra.Command, args []string) {
		data, err := yaml.Marshal(schema.ConfigFromCatalog(loadCatalog(cmd)))
		if err != nil {
			fail(err)
		}

		if out := getString(cmd, "out"); out != "" {
			if err := os.WriteFile(out, data, 0644); err != nil {
				fail(err)
			}
			fmt.Printf("wrote %s\n", out)
			return
		}
		os.Stdout.Write(data)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogExportCmd.Flags().StringP("out", "o", "", "write to a file instead of stdout")
}
