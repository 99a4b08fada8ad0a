package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/rules/configutil"
)

//go:embed schema.json
var schemaJSON []byte

var rootSchema = sync.OnceValues(func() (map[string]any, error) {
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, fmt.Errorf("parse config schema: %w", err)
	}
	return schema, nil
})

// Schema returns the JSON Schema of the configuration file.
func Schema() []byte {
	return slices.Clone(schemaJSON)
}

func decodeConfig(raw map[string]any) (*Config, error) {
	normalized, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	schema, err := rootSchema()
	if err != nil {
		return nil, err
	}
	coerce(normalized, schema, schema)
	if err := configutil.ValidateWithSchema(normalized, schema); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateRuleOptions(normalized); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(normalized, ""), nil); err != nil {
		return nil, fmt.Errorf("load normalized config: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// normalize turns provider output into plain JSON values and drops nulls
// left behind by empty defaults.
func normalize(raw map[string]any) (map[string]any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	dropNulls(out)
	return out, nil
}

func dropNulls(m map[string]any) {
	for k, v := range m {
		switch v := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			dropNulls(v)
		}
	}
}

// validateRuleOptions checks every rule table's options against the rule
// that owns them. Tables for rules that are not registered are left alone.
func validateRuleOptions(raw map[string]any) error {
	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return nil
	}

	for _, ns := range RuleNamespaces() {
		namespaceRaw, ok := rulesRaw[ns].(map[string]any)
		if !ok {
			continue
		}

		for _, name := range slices.Sorted(maps.Keys(namespaceRaw)) {
			entry, ok := namespaceRaw[name].(map[string]any)
			if !ok {
				continue
			}
			opts := optionsFromRuleEntry(entry)
			if len(opts) == 0 {
				continue
			}

			ruleCode := ns + "/" + name
			rule := rules.Get(ruleCode)
			if rule == nil {
				continue
			}
			configurable, ok := rule.(rules.ConfigurableRule)
			if !ok {
				return fmt.Errorf("rule %s does not support options (%s)",
					ruleCode, strings.Join(slices.Sorted(maps.Keys(opts)), ", "))
			}
			if withSchema, ok := rule.(interface{ Schema() map[string]any }); ok {
				schema := withSchema.Schema()
				coerce(opts, schema, schema)
				maps.Copy(entry, opts)
			}
			if err := configurable.ValidateConfig(opts); err != nil {
				return fmt.Errorf("rule %s: %w", ruleCode, err)
			}
		}
	}

	return nil
}

func optionsFromRuleEntry(entry map[string]any) map[string]any {
	options := maps.Clone(entry)
	delete(options, "severity")
	delete(options, "exclude")
	if len(options) == 0 {
		return nil
	}
	return options
}

// coerce converts string values to the type the schema expects. Environment
// variables only carry strings, so DOCKSIFT_OUTPUT_SHOW_SOURCE=false must
// become a boolean before validation.
func coerce(obj map[string]any, schema, root map[string]any) {
	for key, value := range obj {
		sub := propertySchema(schema, key, root)
		if sub == nil {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			coerce(v, sub, root)
		case string:
			obj[key] = coerceString(v, sub)
		}
	}
}

func propertySchema(schema map[string]any, key string, root map[string]any) map[string]any {
	if props, ok := schema["properties"].(map[string]any); ok {
		if sub, ok := props[key].(map[string]any); ok {
			return deref(sub, root)
		}
	}
	if sub, ok := schema["additionalProperties"].(map[string]any); ok {
		return deref(sub, root)
	}
	return nil
}

func deref(schema, root map[string]any) map[string]any {
	ref, ok := schema["$ref"].(string)
	if !ok {
		return schema
	}
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok {
		return schema
	}
	defs, _ := root["$defs"].(map[string]any)
	if def, ok := defs[name].(map[string]any); ok {
		return def
	}
	return schema
}

func coerceString(s string, schema map[string]any) any {
	switch schema["type"] {
	case "boolean":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case "integer":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "array":
		if strings.HasPrefix(strings.TrimSpace(s), "[") {
			var items []any
			if err := json.Unmarshal([]byte(s), &items); err == nil {
				return items
			}
		}
		var items []any
		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	}
	return s
}
