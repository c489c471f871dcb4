package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"github.com/petalframe/catalog-backend/internal/utils"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string   `yaml:"port"`
	Environment    string   `yaml:"environment"`
	ServiceName    string   `yaml:"service_name"`
	Version        string   `yaml:"version"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	DBDriver string `yaml:"db_driver"`
}

// LoadConfig reads environment variables, then overlays an optional YAML file
// named by CONFIG_PATH. File values win over env so deployments can pin a
// full config.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		ServiceName: utils.GetEnv("SERVICE_NAME", "catalog-backend", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
		DBDriver:    utils.GetEnv("DB_DRIVER", "postgres", log),
	}
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	log.Info("config file loaded", "path", path)
	return cfg, nil
}
