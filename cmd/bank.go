package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/acumenlabs/acumen/core/bank"
)

var bankDBPath string

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and manage item banks",
}

var bankImportCmd = &cobra.Command{
	Use:   "import <bank.yaml>",
	Short: "Import a YAML item bank into the SQLite store",
	Args:  cobra.ExactArgs(1),
	RunE:  runBankImport,
}

var bankStatsCmd = &cobra.Command{
	Use:   "stats <bank.yaml>",
	Short: "Summarize a YAML item bank",
	Args:  cobra.ExactArgs(1),
	RunE:  runBankStats,
}

func init() {
	rootCmd.AddCommand(bankCmd)
	bankCmd.AddCommand(bankImportCmd)
	bankCmd.AddCommand(bankStatsCmd)

	bankImportCmd.Flags().StringVar(&bankDBPath, "db", "acumen.db", "SQLite database path")
}

func runBankImport(cmd *cobra.Command, args []string) error {
	pool, err := bank.LoadFile(args[0])
	if err != nil {
		return err
	}

	store, err := bank.Open(bankDBPath, bank.DefaultStoreConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.UpsertItems(context.Background(), pool.RawItems()); err != nil {
		return err
	}
	fmt.Printf("imported %d items (%d usable) into %s\n",
		pool.Len(), pool.UsableCount(), bankDBPath)
	return nil
}

func runBankStats(cmd *cobra.Command, args []string) error {
	pool, err := bank.LoadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("items: %d total, %d usable, %d uncalibrated\n\n",
		pool.Len(), pool.UsableCount(), pool.Len()-pool.UsableCount())

	counts := pool.DomainCounts()
	domains := make([]string, 0, len(counts))
	for d := range counts {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Printf("  %-12s %4d usable items\n", d, counts[d])
	}
	return nil
}
