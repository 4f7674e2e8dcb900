package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configFile is the per-project configuration file name, looked up in the
// working directory.
const configFile = "typetower.toml"

// Config is the on-disk configuration. Every field has a flag equivalent;
// flags that were set explicitly win over file values.
type Config struct {
	Extract ExtractConfig `toml:"extract"`
	Serve   ServeConfig   `toml:"serve"`
}

// ExtractConfig configures the extract command.
type ExtractConfig struct {
	Scope           string `toml:"scope"`
	MaxDepth        int    `toml:"max_depth"`
	IncludeExternal bool   `toml:"include_external"`
	IncludeDocs     bool   `toml:"include_docs"`
	Format          string `toml:"format"`
	Name            string `toml:"name"`
	Output          string `toml:"output"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// loadConfig reads typetower.toml from dir. A missing file is not an error;
// it yields the zero configuration.
func loadConfig(dir string) (Config, error) {
	var cfg Config
	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
