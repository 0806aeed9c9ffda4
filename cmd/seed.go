package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/menusync/internal/factories"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/chrisdamba/menusync/internal/repositories/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed [catalog.json]",
	Short: "Load a catalog file, or a generated catalog, into the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		var catalog *models.Catalog
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			if catalog, err = models.ParseCatalog(data); err != nil {
				return err
			}
		} else {
			items, _ := cmd.Flags().GetInt("items")
			catalog = factories.New(cfg.Simulation.Seed).CreateCatalog(cfg.StoreID, items, false)
		}

		pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		bar := progressbar.Default(int64(catalog.Size()), "seeding catalog")
		err = repositories.LoadCatalog(cmd.Context(), postgres.NewCatalogRepository(pool), catalog, func() {
			_ = bar.Add(1)
		})
		if err != nil {
			return err
		}
		_ = bar.Finish()
		logger.Info("catalog loaded",
			zap.String("store_id", catalog.Store.ID),
			zap.Int("groups", len(catalog.Groups)),
			zap.Int("items", len(catalog.Items)))
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("items", 20, "Number of generated items when no file is given")
}
