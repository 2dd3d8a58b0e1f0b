package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix marks environment variables read as configuration.
	// A double underscore separates nested keys: GRADEBOOK_LOG__LEVEL.
	EnvPrefix = "GRADEBOOK_"

	DefaultDBPath     = "students.db"
	DefaultLogLevel   = "info"
	DefaultArchiveDir = "archive"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	DBPath   string  `koanf:"db" validate:"required"`
	Log      Log     `koanf:"log"`
	Archive  Archive `koanf:"archive"`
	Snapshot bool    `koanf:"snapshot"`
}

// Log controls console verbosity and the rotating log file.
type Log struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn error"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool   `koanf:"compress"`
}

// Archive controls where roster snapshots are committed.
type Archive struct {
	Dir string `koanf:"dir" validate:"required"`
}

// flagKeys maps flag names to configuration keys. Flags missing from the
// map (like --config) are not configuration values.
var flagKeys = map[string]string{
	"db":               "db",
	"log-level":        "log.level",
	"log-file":         "log.file",
	"log-max-size-mb":  "log.max_size_mb",
	"log-max-backups":  "log.max_backups",
	"log-max-age-days": "log.max_age_days",
	"log-compress":     "log.compress",
	"archive-dir":      "archive.dir",
	"snapshot":         "snapshot",
}

func newFlagSet(output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("gradebook", pflag.ContinueOnError)
	fs.SetOutput(output)

	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("db", DefaultDBPath, "Path to the SQLite database file")
	fs.String("log-level", DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	fs.String("log-file", "", "Log file path (default: gradebook.log next to the database)")
	fs.Int("log-max-size-mb", 50, "Rotate the log file after this many megabytes")
	fs.Int("log-max-backups", 5, "Number of rotated log files to keep")
	fs.Int("log-max-age-days", 30, "Days to keep rotated log files")
	fs.Bool("log-compress", true, "Compress rotated log files")
	fs.String("archive-dir", DefaultArchiveDir, "Git working tree that receives roster snapshots")
	fs.Bool("snapshot", false, "Commit a roster snapshot to the archive and exit")
	return fs
}

// Load resolves configuration from, in increasing priority: flag defaults,
// the YAML file named by --config, GRADEBOOK_* environment variables and
// flags set on the command line. The result is validated before it is
// returned. Help output and flag errors go to output.
func Load(args []string, output io.Writer) (*Config, error) {
	fs := newFlagSet(output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys that no earlier source set.
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks a Config against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
