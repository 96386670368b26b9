// Package jsonext adds JSON bodies to the arrangement and assertion DSLs.
//
// Arrangement:
//
//	jsonext.JSONObjectBody(r, func(o *jsonext.Object) { o.Put("key", 1.0) })
//
// Assertion:
//
//	r.Body(func(b *assertions.Body) {
//		jsonext.Body(b, func(e *jsonext.Expectations) {
//			e.Path("user.name", "John")
//			e.MatchesSchema(`{"type": "object"}`)
//		})
//	})
//
// Encoding and decoding go through Config, registered in the extension
// registry. Without one, encoding/json is used.
package jsonext

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/apythia/packages/extension"
)

// Config customizes how values are encoded into and decoded from bodies.
type Config struct {
	Marshal   func(v any) ([]byte, error)
	Unmarshal func(data []byte, v any) error
}

func (Config) DSLExtensionConfig() {}

// DefaultConfig uses encoding/json.
func DefaultConfig() Config {
	return Config{Marshal: json.Marshal, Unmarshal: json.Unmarshal}
}

// ConfigFrom returns the Config registered in reg, completed with defaults.
func ConfigFrom(reg *extension.Registry) Config {
	cfg, _ := extension.Lookup[Config](reg)
	def := DefaultConfig()
	if cfg.Marshal == nil {
		cfg.Marshal = def.Marshal
	}
	if cfg.Unmarshal == nil {
		cfg.Unmarshal = def.Unmarshal
	}
	return cfg
}

// Decode unmarshals data into a new T.
func Decode[T any](cfg Config, data []byte) (T, error) {
	var v T
	if cfg.Unmarshal == nil {
		cfg.Unmarshal = json.Unmarshal
	}
	if err := cfg.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode JSON body: %w", err)
	}
	return v, nil
}

// DecodeBody decodes body with the Config registered in reg.
func DecodeBody[T any](reg *extension.Registry, body []byte) (T, error) {
	return Decode[T](ConfigFrom(reg), body)
}
