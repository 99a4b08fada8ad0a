// Package configutil decodes and validates the options of configurable
// rules.
package configutil

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Resolve layers opts over defaults and decodes the result into T, keyed
// by T's koanf tags. A key present in opts wins even with a zero value, so
// a user can switch a default off or clear a default list. When opts do not
// decode, or T is not a struct, defaults come back unchanged.
func Resolve[T any](opts map[string]any, defaults T) T {
	if len(opts) == 0 || reflect.TypeFor[T]().Kind() != reflect.Struct {
		return defaults
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return defaults
	}
	if err := k.Load(confmap.Provider(opts, "."), nil); err != nil {
		return defaults
	}
	var out T
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return defaults
	}
	return out
}

// Coerce turns the options a rule receives in LintInput.Config into T. The
// linter passes a T or *T; tests and embedders may pass the raw option map.
// Anything else yields defaults.
func Coerce[T any](config any, defaults T) T {
	switch v := config.(type) {
	case T:
		return v
	case *T:
		if v != nil {
			return *v
		}
	case map[string]any:
		return Resolve(v, defaults)
	}
	return defaults
}

// schemas caches compiled schemas by their JSON encoding.
var schemas sync.Map

func compile(schema map[string]any) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)
	if cached, ok := schemas.Load(key); ok {
		return cached.(*jsonschema.Resolved), nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	actual, _ := schemas.LoadOrStore(key, resolved)
	return actual.(*jsonschema.Resolved), nil
}

// ValidateWithSchema checks config against a JSON Schema. Validation sees
// config as its JSON encoding, so struct configs are checked by their json
// tags. A nil schema or a nil config is valid.
func ValidateWithSchema(config any, schema map[string]any) error {
	if schema == nil || config == nil {
		return nil
	}
	if rv := reflect.ValueOf(config); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}

	resolved, err := compile(schema)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return err
	}
	return resolved.Validate(instance)
}
