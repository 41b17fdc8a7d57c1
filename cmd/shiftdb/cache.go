package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shiftdb/shiftdb/internal/cache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset a decode cache directory.",
}

var cacheVerifyCmd = &cobra.Command{
	Use:   "verify [flags] cache_dir",
	Short: "Check every cached table against its manifest.",
	Long: `Read back every blob the manifest lists. A corrupt or missing blob is not
an error for loads, the table just decodes fresh next time, but verify makes
the state visible.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		store, err := cache.Open(args[0])
		if err != nil {
			fail(err)
		}

		entries := store.Entries()
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return
		}

		stale := 0
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tRECORDS\tDECODED\tHASH\tSTATE")
		for _, entry := range entries {
			state := "ok"
			if _, ok := store.Get(entry.Table, entry.Hash); !ok {
				state = "corrupt"
				stale++
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%.8s\t%s\n",
				entry.Table, entry.Records, entry.DecodedAt.Format("2006-01-02 15:04:05"), entry.Hash, state)
		}
		w.Flush()

		if stale > 0 {
			fmt.Printf("\n%d of %d entries need a fresh decode\n", stale, len(entries))
			os.Exit(1)
		}
		fmt.Printf("\nall %d entries verified\n", len(entries))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [flags] cache_dir",
	Short: "Drop every cached table and the manifest.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		store, err := cache.Open(args[0])
		if err != nil {
			fail(err)
		}
		dropped := len(store.Entries())
		if err := store.Clear(); err != nil {
			fail(err)
		}
		fmt.Printf("dropped %d cached tables from %s\n", dropped, store.Dir())
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheVerifyCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
