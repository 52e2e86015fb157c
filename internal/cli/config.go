// Config loading for the markable CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/markable/pkg/registry"
	"github.com/mesh-intelligence/markable/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeyDatabase    = "database"
	cfgKeyUniqueMarks = "unique_marks"
	cfgKeyLogLevel    = "log_level"

	envLogLevel = "MARKABLE_LOG_LEVEL"

	defaultLogLevel = "warn"
)

// configHeader is written above the generated default config.yaml.
const configHeader = `# markable configuration
#
# Declare marker types under "markers" and markable types under "markables".
# Each markable lists its marks and the marker types allowed to apply them:
#
#   markers:
#     - type: user
#       table: users        # optional, used by "markable orphans"
#   markables:
#     - type: food
#       table: foods
#       id_column: id
#       marks:
#         favorite: [user]
#         hated: [user]
#
`

// settings is the decoded content of config.yaml.
type settings struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Database    string `mapstructure:"database" yaml:"database,omitempty"`
	UniqueMarks bool   `mapstructure:"unique_marks" yaml:"unique_marks"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	registry.Definition `mapstructure:",squash" yaml:",inline"`
}

func defaultSettings() settings {
	return settings{
		Backend:     types.BackendSQLite,
		UniqueMarks: true,
		LogLevel:    defaultLogLevel,
		Definition: registry.Definition{
			Markers:   []registry.MarkerDef{},
			Markables: []registry.MarkableDef{},
		},
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (settings, error) {
	var s settings
	if err := ensureConfigDir(configDir); err != nil {
		return s, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return s, fmt.Errorf("ensure default config: %w", err)
	}

	def := defaultSettings()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyUniqueMarks, def.UniqueMarks)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyDatabase, "")
	if err := v.BindEnv(cfgKeyLogLevel, envLogLevel); err != nil {
		return s, fmt.Errorf("bind env: %w", err)
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return s, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes config.yaml when the file does not exist.
// An existing file is never touched.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultSettings())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
