// Shared setup for commands that touch the mark store.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/internal/paths"
	"github.com/mesh-intelligence/markable/internal/sqlite"
	"github.com/mesh-intelligence/markable/pkg/marks"
	"github.com/mesh-intelligence/markable/pkg/registry"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// session is an attached backend plus the service built from config.yaml.
// Callers must call close.
type session struct {
	settings  settings
	configDir string
	dataDir   string
	log       *logrus.Logger
	backend   *sqlite.Backend
	service   *marks.Service
}

// openSession resolves directories, loads config.yaml, attaches the SQLite
// backend and builds the registry and service.
func (a *app) openSession(cmd *cobra.Command) (*session, error) {
	s, err := a.prepare(cmd)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Load(s.settings.Definition, s.log)
	if err != nil {
		return nil, usageError{fmt.Errorf("config: %w", err)}
	}

	backend := sqlite.NewBackend(s.log)
	if err := backend.Attach(s.storeConfig()); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	s.backend = backend
	s.service = marks.NewService(reg, backend, marks.WithLogger(s.log))
	return s, nil
}

// prepare resolves directories, loads config.yaml and builds the logger
// without opening the database.
func (a *app) prepare(cmd *cobra.Command) (*session, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	level := cfg.LogLevel
	if a.flags.logLevel != "" {
		level = a.flags.logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, usageError{fmt.Errorf("log level: %w", err)}
	}
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(lvl)

	log.WithFields(logrus.Fields{
		"config_dir": configDir,
		"data_dir":   dataDir,
	}).Debug("configuration loaded")

	return &session{
		settings:  cfg,
		configDir: configDir,
		dataDir:   dataDir,
		log:       log,
	}, nil
}

func (s *session) storeConfig() types.Config {
	return types.Config{
		Backend:     s.settings.Backend,
		DataDir:     s.dataDir,
		Database:    s.settings.Database,
		UniqueMarks: s.settings.UniqueMarks,
	}
}

func (s *session) close() {
	if s.backend == nil {
		return
	}
	if err := s.backend.Detach(); err != nil {
		s.log.WithError(err).Warn("detach backend")
	}
}

// refs parses each argument as type:id.
func refs(in []string) ([]any, error) {
	out := make([]any, len(in))
	for i, s := range in {
		r, err := types.ParseRef(s)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
