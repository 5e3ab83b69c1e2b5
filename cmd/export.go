package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"audiogest/config"
	"audiogest/importer"
	"audiogest/output"
	"audiogest/storage"
)

var (
	exportDomain string
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted records from the store to CSV/Excel",
	Long: `Export all persisted documents of one domain, ordered by reference.

Output format can be selected explicitly via --format or inferred from the
--output extension.`,
	Example: `
  # Export payments to CSV
  audiogest export --domain reglement --output ./reglements.csv

  # Export stock to Excel
  audiogest export --domain stock --format excel --output ./stock.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		mapper, err := importer.MapperByName(exportDomain)
		if err != nil {
			return err
		}
		domain := mapper.Domain()

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}
		writer, err := output.WriterForFormat(format, domain)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		documents, err := store.Find(ctx, domain.Collection(), storage.Query{OrderBy: "reference"})
		if err != nil {
			return err
		}

		if err := writer.Write(exportOutput, documents); err != nil {
			return err
		}

		fmt.Printf("Export completed. Rows: %d, Domain: %s, Format: %s, File: %s\n",
			len(documents), domain, format, exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDomain, "domain", "", "Record domain: "+strings.Join(importer.SupportedMapperNames(), "|"))
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: csv|excel (default: inferred from --output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	_ = exportCmd.MarkFlagRequired("domain")
	_ = exportCmd.MarkFlagRequired("output")
}

func detectExportFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "csv"
	}
}
