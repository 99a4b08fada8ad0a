package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/wharflab/docksift/internal/rules"
)

// ConfigFileNames are looked for in each directory, first match wins.
var ConfigFileNames = []string{".docksift.toml", "docksift.toml"}

const EnvPrefix = "DOCKSIFT_"

// Load returns the configuration for the file or directory at target,
// read from the closest config file above it.
func Load(target string) (*Config, error) {
	return load(Discover(target))
}

// LoadFromFile reads the configuration from path without discovery.
func LoadFromFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: envKeyTransform}), nil); err != nil {
		return nil, err
	}

	cfg, err := decodeConfig(k.Raw())
	if err != nil {
		if path != "" {
			err = fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	cfg.ConfigFile = path
	return cfg, nil
}

// ruleKeys are hyphenated rule names and option keys. Registered rules
// add theirs at lookup time.
var ruleKeys = []string{
	"apt-no-install-recommends",
	"clear-text-protocol",
	"hard-coded-credentials",
	"insecure-tls",
	"secrets-in-arg-or-env",
	"secrets-in-code",
	"world-writable-permissions",
	"allowed-hosts",
}

// hyphenated rewrites the dotted spelling of every known hyphenated key
// back to its hyphens. Longer keys are listed first so they win over keys
// they contain.
var hyphenated = sync.OnceValue(func() *strings.Replacer {
	keys := slices.Clone(ruleKeys)
	if schema, err := rootSchema(); err == nil {
		keys = append(keys, schemaKeys(schema)...)
	}
	for _, r := range rules.DefaultRegistry().All() {
		_, name, _ := rules.Namespace(r.Metadata().Code)
		keys = append(keys, name)
		if s, ok := r.(interface{ Schema() map[string]any }); ok {
			keys = append(keys, schemaKeys(s.Schema())...)
		}
	}
	keys = slices.DeleteFunc(keys, func(k string) bool { return !strings.Contains(k, "-") })
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})
	keys = slices.Compact(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, strings.ReplaceAll(k, "-", "."), k)
	}
	return strings.NewReplacer(pairs...)
})

// schemaKeys collects the property names of a JSON Schema at any depth.
func schemaKeys(schema map[string]any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case map[string]any:
			if props, ok := v["properties"].(map[string]any); ok {
				for name := range props {
					out = append(out, name)
				}
			}
			for _, sub := range v {
				walk(sub)
			}
		case []any:
			for _, sub := range v {
				walk(sub)
			}
		}
	}
	walk(schema)
	return out
}

// envKeyTransform maps an environment variable to a config key:
//
//	DOCKSIFT_OUTPUT_FAIL_LEVEL                    -> output.fail-level
//	DOCKSIFT_RULES_DOCKSIFT_INSECURE_TLS_SEVERITY -> rules.docksift.insecure-tls.severity
//	DOCKSIFT_RULES_HADOLINT_DL3007_SEVERITY       -> rules.hadolint.DL3007.severity
//
// Values stay strings until decodeConfig coerces them. Variables outside
// the config sections, such as the CLI's own flags, are dropped.
func envKeyTransform(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = hyphenated().Replace(strings.ReplaceAll(key, "_", "."))

	section, rest, _ := strings.Cut(key, ".")
	switch section {
	case "output", "inline-directives", "file-validation":
	case "rules":
		if tail, ok := strings.CutPrefix(rest, "hadolint."); ok {
			code, field, found := strings.Cut(tail, ".")
			key = "rules.hadolint." + strings.ToUpper(code)
			if found {
				key += "." + field
			}
		}
	default:
		return "", nil
	}
	return key, value
}

// Discover returns the closest config file in target's directory or above
// it, or "" when there is none. A directory target is searched itself.
func Discover(target string) string {
	dir, err := filepath.Abs(target)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
