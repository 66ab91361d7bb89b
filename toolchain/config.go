package toolchain

import (
	"github.com/caarlos0/env/v11"

	"github.com/dropbox/abicheck/errors"
)

// Config names the external tools and where they work.  Every field can be
// set from the environment.
type Config struct {
	// C compiler used for the consumer, the guard and C producer sources.
	CC string `env:"ABICHECK_CC" envDefault:"cc"`

	// Archiver used to bundle producer objects into a static library.
	AR string `env:"ABICHECK_AR" envDefault:"ar"`

	// Extra flags for every compile step.
	CFlags []string `env:"ABICHECK_CFLAGS" envSeparator:" "`

	// Extra flags for the link step, e.g. -lpthread for Go c-archives.
	LDFlags []string `env:"ABICHECK_LDFLAGS" envSeparator:" "`

	// Parent of the per-run work directories.  Empty means the system
	// temporary directory.
	WorkDir string `env:"ABICHECK_WORKDIR"`

	// Keep the per-run work directory for inspection.
	KeepWorkDir bool `env:"ABICHECK_KEEP_WORKDIR" envDefault:"false"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid toolchain environment")
	}
	return cfg, nil
}

// DefaultConfig is the configuration with no environment overrides.
func DefaultConfig() Config {
	return Config{CC: "cc", AR: "ar"}
}
