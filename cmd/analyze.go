package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"audiogest/config"
	"audiogest/importer"
)

var (
	analyzeInputs []string
	analyzeDomain string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze delimited files without persisting anything",
	Long: `Run the full import pipeline up to (but not including) the commit step:
decode each file, locate its header, map columns, parse rows, and merge the
batch with cross-file deduplication. Nothing is written to the store.

Use this as a dry run before "audiogest import".`,
	Example: `
  # Analyze two payment exports
  audiogest analyze -i reglements_mars.csv -i reglements_avril.csv --domain reglement

  # Analyze a stock export
  audiogest analyze -i stock_A01.csv --domain stock
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		result, err := runMerge(analyzeInputs, analyzeDomain, cfg)
		if err != nil {
			return err
		}

		printMergeReport(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringArrayVarP(&analyzeInputs, "input", "i", nil, "Input file path (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeDomain, "domain", "", "Row domain: "+strings.Join(importer.SupportedMapperNames(), "|"))
	_ = analyzeCmd.MarkFlagRequired("input")
	_ = analyzeCmd.MarkFlagRequired("domain")
}

// runMerge loads the input files and runs the concurrent merge for the
// selected domain.
func runMerge(paths []string, domain string, cfg *config.Config) (*importer.MergeResult, error) {
	mapper, err := importer.MapperByName(domain)
	if err != nil {
		return nil, err
	}

	inputs := make([]importer.FileInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input %s: %w", path, err)
		}
		inputs = append(inputs, importer.FileInput{Name: filepath.Base(path), Data: data})
	}

	return importer.Merge(inputs, mapper, 0, cfg.Import.MaxFiles)
}

func printMergeReport(result *importer.MergeResult) {
	for _, outcome := range result.PerFile {
		if outcome.Err != nil {
			fmt.Printf("File %s: FAILED (%v)\n", outcome.Name, outcome.Err)
			continue
		}
		analysis := outcome.Analysis
		fmt.Printf("File %s: separator %q, %d columns mapped, %d records, %d row errors\n",
			outcome.Name,
			string(analysis.Separator),
			len(analysis.Mapping.Fields),
			len(analysis.Records),
			len(analysis.Errors),
		)
		for _, rowError := range analysis.Errors {
			fmt.Printf("  line %d: %s | %s\n", rowError.Line, rowError.Message, rowError.Excerpt)
		}
	}

	fmt.Printf("Merged: %d unique records, %d duplicates excluded\n", len(result.Records), len(result.Duplicates))
	fmt.Printf("Stats: total %d, somme %.2f\n", result.Stats.Total, result.Stats.Somme)
	printCountMap("Par type", result.Stats.ParType)
	printCountMap("Par magasin", result.Stats.ParMagasin)
}

func printCountMap(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("%s:\n", title)
	for _, key := range keys {
		fmt.Printf("  %s: %d\n", key, counts[key])
	}
}
