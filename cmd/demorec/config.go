package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/hairizuan-noorazman/demo-recorder/storage"
)

var cfg *viper.Viper

func initConfig(configPath string) error {
	cfg = viper.New()

	if configPath != "" {
		cfg.SetConfigFile(configPath)
	} else {
		cfg.SetConfigName("demorec")
		cfg.SetConfigType("yaml")
		cfg.AddConfigPath(".")
		cfg.AddConfigPath("./config")
	}

	cfg.SetEnvPrefix("DEMOREC")
	cfg.AutomaticEnv()
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", "text")

	cfg.SetDefault("record.headless", true)
	cfg.SetDefault("record.output_dir", "./output")

	cfg.SetDefault("history.path", "./demorec_runs.db")

	cfg.SetDefault("storage.type", "local")
	cfg.SetDefault("storage.base_dir", "./published")
	cfg.SetDefault("storage.s3_bucket", "")
	cfg.SetDefault("storage.s3_region", "us-east-1")

	cfg.SetDefault("serve.host", "127.0.0.1")
	cfg.SetDefault("serve.port", 8090)

	if err := cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file; defaults plus env are enough.
	}

	return nil
}

func storageConfig() storage.Config {
	return storage.Config{
		Type:    cfg.GetString("storage.type"),
		BaseDir: cfg.GetString("storage.base_dir"),
		Bucket:  cfg.GetString("storage.s3_bucket"),
		Region:  cfg.GetString("storage.s3_region"),
	}
}
