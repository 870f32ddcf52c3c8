package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"linkedinmcp/internal/app"
)

// envPrefix marks environment variables as configuration; "__" nests keys
// (LINKEDIN_MCP_SERVER__HOST → server.host). The unprefixed LINKEDIN_*
// credential variables are handled separately by app.Config.ApplyDefaults.
const envPrefix = "LINKEDIN_MCP_"

// loadConfig assembles the configuration, later sources overriding earlier
// ones: TOML file, then environment, then CLI flags, then defaults for
// whatever is still unset. environFunc is injected so tests can supply a
// fixed environment.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			stripped := strings.TrimPrefix(key, envPrefix)
			nested := strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
			return nested, value
		},
		EnvironFunc: environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagOverrides(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// flagOverrides collects the flags a user actually set, mapped to config
// keys: "--" in a flag name nests ("server--host" → server.host), "-"
// becomes "_" ("log-level" → log_level). Unset flags are skipped so they
// cannot shadow file or environment values.
func flagOverrides(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	// FlagNames covers the whole command lineage, so root flags like
	// --log-level land here too.
	for _, name := range cmd.FlagNames() {
		if !cmd.IsSet(name) {
			continue
		}
		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(name, "--", ".")
			key = strings.ReplaceAll(key, "-", "_")
			values[key] = value
		}
	}

	return values
}
