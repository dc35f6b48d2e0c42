package cmd

import (
	"database/sql"
	"fmt"

	"db-describe/internal/catalog"
	"db-describe/internal/description"
	"db-describe/internal/migrations"
	"db-describe/internal/model"

	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
// A --dsn flag takes precedence over the config file.
func GetActiveDBConfig() (*DBConfig, error) {
	if dsn != "" {
		return &DBConfig{Name: "cli", Driver: "sqlserver", DSN: dsn, Active: true}, nil
	}

	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}
	if activeConfig.Driver == "" {
		activeConfig.Driver = "sqlserver"
	}

	return activeConfig, nil
}

// openDatabase connects to the active database.
func openDatabase(config *DBConfig) (*sql.DB, error) {
	Log.WithFields(describeTarget(config)).Info("Connecting")

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}

// describeTarget returns loggable connection details without credentials.
func describeTarget(config *DBConfig) logrus.Fields {
	fields := logrus.Fields{"name": config.Name, "driver": config.Driver}
	p, err := msdsn.Parse(config.DSN)
	if err != nil {
		return fields
	}
	fields["host"] = p.Host
	if p.Instance != "" {
		fields["instance"] = p.Instance
	}
	if p.Port != 0 {
		fields["port"] = p.Port
	}
	if p.Database != "" {
		fields["database"] = p.Database
	}
	return fields
}

// loadModel reads the model file, harvests its descriptions and returns the
// model together with its snapshot.
func loadModel() (*model.Model, *migrations.Snapshot, error) {
	path := viper.GetString("model")
	m, reg, err := catalog.Load(path)
	if err != nil {
		return nil, nil, err
	}

	h := description.NewHarvester(reg,
		description.WithFlagsMarker(viper.GetString("describe.flags_marker")),
		description.WithLogger(Log))
	stats := h.Harvest(m)
	Log.WithFields(logrus.Fields{
		"model":      path,
		"tables":     stats.Entities,
		"columns":    stats.Properties,
		"unlabelled": stats.Skipped,
	}).Info("Descriptions harvested")

	s, err := migrations.SnapshotOf(m)
	if err != nil {
		return nil, nil, err
	}
	return m, s, nil
}
