package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/pipeline"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the scoring catalog",
	Long: `Inspect the catalog of categories, factors and weights.

The catalog path comes from the argument, the --catalog flag of the
score command, IDEASCORE_CATALOG_PATH or catalog.path in the config file.`,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a catalog file and report every problem",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogPath(args)
		c, err := catalog.LoadFile(path)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d categories, %d factors\n", path, c.Len(), c.TotalFactors())
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print categories and factors with their weights",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogPath(args)
		c, err := catalog.LoadFile(path)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.NewRenderer(cfg.Output).RenderCatalog(cmd.OutOrStdout(), c)
	},
}

func catalogPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return viper.GetString("catalog.path")
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}
