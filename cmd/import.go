package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"audiogest/committer"
	"audiogest/config"
	"audiogest/identity"
	"audiogest/importer"
	"audiogest/record"
)

var (
	importInputs []string
	importDomain string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import delimited files into the configured document store",
	Long: `Analyze and merge the input files, then commit the deduplicated records
into the configured store.

Payments are always created as new documents. Stock items are matched against
existing documents by serial number + store (or libellé + store when no serial
is present): unchanged matches count as doublons, changed matches are updated
in place, and the rest are created.`,
	Example: `
  # Import payment exports from two stores
  audiogest import -i reglements_A01.csv -i reglements_B02.csv --domain reglement

  # Import a stock export
  audiogest import -i stock_A01.csv --domain stock

  # Import with a custom config file
  audiogest --configFile ./custom-audiogest.yaml import -i stock_A01.csv --domain stock
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		merge, err := runMerge(importInputs, importDomain, cfg)
		if err != nil {
			return err
		}
		printMergeReport(merge)

		for _, outcome := range merge.PerFile {
			if outcome.Err != nil {
				return fmt.Errorf("batch aborted, fix or remove the failed file: %w", outcome.Err)
			}
		}

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		service := committer.New(store, actorProvider(cfg))
		result := service.Commit(ctx, merge.Records, sourceLabel(importInputs))

		fmt.Printf("Import completed. Réussies: %d, Doublons: %d, Mises à jour: %d, Erreurs: %d\n",
			result.Reussies,
			result.Doublons,
			result.MisesAJour,
			len(result.Erreurs),
		)
		for _, commitError := range result.Erreurs {
			fmt.Printf("  %s: %s\n", commitError.Ref, commitError.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVar(&importDomain, "domain", "", "Row domain: "+strings.Join(importer.SupportedMapperNames(), "|"))
	_ = importCmd.MarkFlagRequired("input")
	_ = importCmd.MarkFlagRequired("domain")
}

// actorProvider builds the operator identity from configuration. An empty
// actor section yields nil, letting the committer fall back to the CSV-import
// sentinel.
func actorProvider(cfg *config.Config) identity.Provider {
	actor := cfg.Actor
	if strings.TrimSpace(actor.ID) == "" {
		return nil
	}
	return identity.Static{Actor: record.Actor{ID: actor.ID, Nom: actor.Nom, Prenom: actor.Prenom}}
}

func sourceLabel(paths []string) string {
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, filepath.Base(path))
	}
	return strings.Join(names, ", ")
}
