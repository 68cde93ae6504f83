// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides layered configuration management. Sources
// are applied in order onto a shared key value store and the merged
// result is unmarshalled into a struct via "config" field tags.
package config

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure. Nested keys are
// expressed with dots, e.g. "tls.certificate_path".
type Store interface {
	Set(key string, v any) error
}

// Source defines valid config sources as those who can serialize
// themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Map is an ordinary map[string]any which implements both [Source]
// and [Store], making it the merge point between sources.
type Map map[string]any

// Apply implements the [Source] interface. It recursively walks the
// underlying map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain []string) error {
	for k, v := range m {
		switch x := v.(type) {
		case map[string]any:
			err := walkMap(x, store, append(chain, k))
			if err != nil {
				return err
			}
		default:
			err := store.Set(strings.Join(append(chain, k), "."), x)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// UnexpectedKeyValueTypeError represents the situation when a source
// tries setting a nested key below a key which a previous source set
// to a scalar.
type UnexpectedKeyValueTypeError struct {
	Key string
}

// Error implements the error interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a map: %s", e.Key)
}

// Set implements the [Store] interface.
func (m Map) Set(key string, v any) error {
	parts := strings.Split(key, ".")

	cur := map[string]any(m)
	for i, part := range parts[:len(parts)-1] {
		old, ok := cur[part]
		if !ok {
			next := make(map[string]any)
			cur[part] = next
			cur = next
			continue
		}
		next, ok := old.(map[string]any)
		if !ok {
			return UnexpectedKeyValueTypeError{Key: strings.Join(parts[:i+1], ".")}
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
	return nil
}

// Manager holds the merged configuration of all read sources.
type Manager struct {
	store Map
}

// Read applies the sources in order. Subsequent sources override
// previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Unmarshal decodes the merged configuration into v, matching struct
// fields by their "config" tag.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "config",
		Result:  v,
		// env sourced values are always strings
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textUnmarshalerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m.store))
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}
