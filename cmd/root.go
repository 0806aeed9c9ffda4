package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/menusync/internal/logging"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "menusync",
	Short: "Item customization, cart and favorites sync for a pickup restaurant",
	Long: `menusync serves a restaurant's customization, cart and favorites engine over HTTP,
keeps each user's cart and favorites in sync between devices, and ships the resulting
activity to the console, files, object storage, Postgres or Kafka.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.menusync.yaml)")
	rootCmd.PersistentFlags().String("store-id", models.DefaultStoreID, "Store the catalog and orders belong to")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json or console)")
	rootCmd.PersistentFlags().Bool("strict", false, "Panic on cart precondition violations")
	rootCmd.PersistentFlags().String("output-format", "console", "Activity output (console, json, csv, parquet, postgres, kafka, none)")

	_ = viper.BindPFlag("store_id", rootCmd.PersistentFlags().Lookup("store-id"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("activity.output_format", rootCmd.PersistentFlags().Lookup("output-format"))

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, simulateCmd)
}

func initConfig() {
	// a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".menusync")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the global viper instance, which already holds the file and the
// bound flags.
func loadConfig() (*models.Config, *zap.Logger, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), "")
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
