package main

import (
	"fmt"
	"io"

	"github.com/glebarez/sqlite"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jibbril/setupbot/config"
	"github.com/jibbril/setupbot/storage"
	"github.com/jibbril/setupbot/tools/log"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "eg. ./setupbot.yml",
	Value:   "setupbot.yml",
}

// loadConfig reads the config file and applies its log level unless the global flag
// overrides it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	name := cfg.LogLevel
	if override := c.String("log-level"); override != "" {
		name = override
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	return cfg, nil
}

// openStorage opens the configured storage. The returned closer is never nil.
func openStorage(cfg config.StorageConfig) (storage.Storage, func(), error) {
	var (
		st  storage.Storage
		err error
	)

	switch cfg.Driver {
	case "":
		return nil, func() {}, nil
	case "bunt":
		st, err = storage.FromFile(cfg.Path)
	case "sqlite":
		st, err = storage.FromSQL(sqlite.Open(cfg.Path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}

	closer := func() {}
	if c, ok := st.(io.Closer); ok {
		closer = func() {
			log.CheckErr(log.WarnLevel, c.Close())
		}
	}
	return st, closer, nil
}
