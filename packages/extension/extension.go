// Package extension lets third-party DSL extensions plug into the request
// assertion and response arrangement builders.
//
// A Registry holds at most one Config per concrete type. It is built once per
// apythia instance and handed explicitly to every builder, so extensions look
// up their own settings without any global state:
//
//	reg := extension.NewRegistry()
//	_ = reg.Add(jsonext.Config{...})
//	cfg, ok := extension.Lookup[jsonext.Config](reg)
package extension

import (
	"context"
	"net/url"
	"reflect"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// Config is implemented by extension configuration values.
type Config interface {
	DSLExtensionConfig()
}

// HTTPDSLExtension compares an actual message against an extension-defined
// expectation. Returning a *failure.AssertionError marks a mismatch; any other
// error aborts the assertion.
type HTTPDSLExtension interface {
	Assert(ctx context.Context, method string, url *url.URL, msg http.Message) error
}

// AssertFunc adapts a function to HTTPDSLExtension.
type AssertFunc func(ctx context.Context, method string, url *url.URL, msg http.Message) error

func (f AssertFunc) Assert(ctx context.Context, method string, url *url.URL, msg http.Message) error {
	return f(ctx, method, url, msg)
}

// Registry stores extension configs keyed by their runtime type.
type Registry struct {
	configs []Config
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers cfg. A second config of the same type is a usage error.
func (r *Registry) Add(cfg Config) error {
	if cfg == nil {
		return failure.Usagef("extension config must not be nil")
	}
	t := reflect.TypeOf(cfg)
	for _, existing := range r.configs {
		if reflect.TypeOf(existing) == t {
			return failure.Usagef("extension config of type %s is already registered", t)
		}
	}
	r.configs = append(r.configs, cfg)
	return nil
}

// Len returns the number of registered configs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.configs)
}

// Lookup returns the config of type T. A nil registry holds nothing.
func Lookup[T Config](r *Registry) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	for _, cfg := range r.configs {
		if typed, ok := cfg.(T); ok {
			return typed, true
		}
	}
	return zero, false
}
