package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Prefix     string `mapstructure:"prefix"`
}

type LocalStoreConfig struct {
	Driver string `mapstructure:"driver"` // "bolt", "s3" or "memory"
	Path   string `mapstructure:"path"`
}

type ActivityConfig struct {
	OutputFormat      string        `mapstructure:"output_format"` // "console", "json", "csv", "parquet", "postgres", "kafka", "none"
	OutputPath        string        `mapstructure:"output_path"`
	OutputFolder      string        `mapstructure:"output_folder"`
	OutputDestination string        `mapstructure:"output_destination"` // "local" or "cloud"
	KafkaBrokerList   string        `mapstructure:"kafka_broker_list"`
	KafkaTimeout      time.Duration `mapstructure:"kafka_timeout"`
}

type SimulationConfig struct {
	Seed      int64         `mapstructure:"seed"`
	Devices   int           `mapstructure:"devices"`
	Actions   int           `mapstructure:"actions"`
	Interval  time.Duration `mapstructure:"interval"`
	MenuItems int           `mapstructure:"menu_items"`
}

type Config struct {
	StoreID      string             `mapstructure:"store_id"`
	ListenAddr   string             `mapstructure:"listen_addr"`
	Strict       bool               `mapstructure:"strict"`
	LogLevel     string             `mapstructure:"log_level"`
	LogFormat    string             `mapstructure:"log_format"`
	Database     DatabaseConfig     `mapstructure:"database"`
	LocalStore   LocalStoreConfig   `mapstructure:"local_store"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
	Activity     ActivityConfig     `mapstructure:"activity"`
	Simulation   SimulationConfig   `mapstructure:"simulation"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_id", DefaultStoreID)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("strict", false)
	v.SetDefault("database.url", "postgres://localhost:5432/menusync")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("local_store.driver", "bolt")
	v.SetDefault("local_store.path", "menusync.db")
	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "us-east-1")
	v.SetDefault("cloud_storage.prefix", "menusync")
	v.SetDefault("activity.output_format", "console")
	v.SetDefault("activity.output_path", "output")
	v.SetDefault("activity.output_folder", "activity")
	v.SetDefault("activity.kafka_timeout", "30s")
	v.SetDefault("activity.output_destination", "local")
	v.SetDefault("activity.kafka_broker_list", "localhost:9092")
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.devices", 2)
	v.SetDefault("simulation.actions", 50)
	v.SetDefault("simulation.interval", time.Second)
	v.SetDefault("simulation.menu_items", 20)
}

// LoadConfig reads the configuration using Viper. Environment variables prefixed with
// MENUSYNC_ override file values (MENUSYNC_DATABASE_URL -> database.url).
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix("menusync")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
