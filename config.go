package chaudhook

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/k2io/chaudhook/detour"
	"github.com/k2io/chaudhook/filehook"
	"github.com/k2io/chaudhook/gameload"
	"github.com/k2io/chaudhook/internal/logging"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	EnvDebug         = "CHAUDHOOK_DEBUG"
	EnvLogFile       = "CHAUDHOOK_LOG_FILE"
	EnvLogMaxSizeMB  = "CHAUDHOOK_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "CHAUDHOOK_LOG_MAX_BACKUPS"
)

// Config controls logging of the installed detours.
type Config struct {
	// Debug logs at debug level and traces every patch written.
	Debug bool
	// LogFile is rotated by size; empty logs to stderr.
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

func DefaultConfig() Config {
	return Config{LogMaxSizeMB: 10, LogMaxBackups: 3}
}

// ConfigFromEnv starts from DefaultConfig and applies the CHAUDHOOK_*
// variables. Values that do not parse are reported and left at default.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs error
	if v, ok := os.LookupEnv(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		errs = multierr.Append(errs, errors.Wrap(err, EnvDebug))
		if err == nil {
			cfg.Debug = b
		}
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		cfg.LogFile = v
	}
	for _, e := range []struct {
		name string
		dst  *int
	}{
		{EnvLogMaxSizeMB, &cfg.LogMaxSizeMB},
		{EnvLogMaxBackups, &cfg.LogMaxBackups},
	} {
		v, ok := os.LookupEnv(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err == nil && n < 0 {
			err = errors.Errorf("negative value %d", n)
		}
		errs = multierr.Append(errs, errors.Wrap(err, e.name))
		if err == nil {
			*e.dst = n
		}
	}
	return cfg, errs
}

var (
	logger        atomic.Pointer[zap.SugaredLogger]
	configured    atomic.Bool
	configureOnce sync.Once
)

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// Configure builds the logger from cfg and hands it to every package. It
// may be called while hooks are running.
func Configure(cfg Config) {
	l := logging.New(logging.Config{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}).Sugar()
	logger.Store(l.Named("chaudhook"))
	detour.SetLogger(l.Named("detour"))
	detour.SetDebug(cfg.Debug)
	filehook.SetLogger(l.Named("filehook"))
	gameload.SetLogger(l.Named("gameload"))
	configured.Store(true)
}

// ensureConfigured configures from the environment unless Configure ran.
func ensureConfigured() {
	configureOnce.Do(func() {
		if configured.Load() {
			return
		}
		cfg, err := ConfigFromEnv()
		Configure(cfg)
		if err != nil {
			logger.Load().Warnf("environment: %v", err)
		}
	})
}
