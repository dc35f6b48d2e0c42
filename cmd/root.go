package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
	dsn     string
	Log     = logrus.New()

	configErr error
)

var RootCmd = &cobra.Command{
	Use:   "db-describe",
	Short: "Keeps SQL Server MS_Description properties in step with a model",
	Long: `
     _ _           _                   _ _
  __| | |__     __| | ___  ___  ___ _ __(_) |__   ___
 / _' | '_ \   / _' |/ _ \/ __|/ __| '__| | '_ \ / _ \
| (_| | |_) | | (_| |  __/\__ \ (__| |  | | |_) |  __/
 \__,_|_.__/   \__,_|\___||___/\___|_|  |_|_.__/ \___|

DB DESCRIBE - model descriptions as MS_Description migrations
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		Log = setupLogging(viper.GetString("log.level"))
		if used := viper.ConfigFileUsed(); used != "" {
			Log.Debugf("Using config file: %s", used)
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-describe.yaml)")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading the environment")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "SQL Server DSN (overrides the active database in config)")
	RootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("model", "", "model file")
	RootCmd.PersistentFlags().String("snapshot", "", "snapshot file")

	// Flag > Config > Default
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("model", RootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("snapshot", RootCmd.PersistentFlags().Lookup("snapshot"))

	viper.SetDefault("log.level", "info")
	viper.SetDefault("model", "model.yaml")
	viper.SetDefault("snapshot", filepath.Join("migrations", "snapshot.toml"))
	viper.SetDefault("migrations_dir", "migrations")
	viper.SetDefault("describe.flags_marker", "[flags]")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			exePath := filepath.Dir(ex)
			viper.AddConfigPath(exePath)
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-describe")
		viper.SetConfigType("yaml")
	}

	loadEnvFile(envFile)

	viper.SetEnvPrefix("DB_DESCRIBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	configErr = readConfig()
}

// readConfig reads the configured or discovered config file. Only a file that
// the search path did not find is fine; everything has a default or a flag.
func readConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// loadEnvFile loads KEY=VALUE pairs into the process environment. Variables that
// are already set are kept.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
	}
}

// setupLogging returns a logger at the given level, falling back to info.
func setupLogging(levelStr string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	return logger
}
