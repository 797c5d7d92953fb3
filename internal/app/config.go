package app

import (
	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
)

const defaultPageSize = 10

// ShopConfig holds storefront settings.
type ShopConfig struct {
	// SeedDemo loads the demo catalog into an empty database on start.
	SeedDemo bool `yaml:"seed_demo" envconfig:"SHOP_SEED_DEMO"`
	// PageSize caps listing and search results per screen.
	PageSize int `yaml:"page_size" envconfig:"SHOP_PAGE_SIZE"`
}

// Config is the full bot configuration: the core sections plus database and shop.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Shop     ShopConfig          `yaml:"shop"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if c.Shop.PageSize <= 0 {
		c.Shop.PageSize = defaultPageSize
	}
	return nil
}
