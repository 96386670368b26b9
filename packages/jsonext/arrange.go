package jsonext

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/tidwall/gjson"
)

// ContentType is the default Content-Type of JSON bodies.
const ContentType = "application/json"

type bodyOptions struct {
	contentType string
}

// Option customizes a JSON body.
type Option func(*bodyOptions)

// WithoutContentType leaves the Content-Type header unset.
func WithoutContentType() Option {
	return func(o *bodyOptions) {
		o.contentType = ""
	}
}

// WithContentType overrides the Content-Type header.
func WithContentType(contentType string) Option {
	return func(o *bodyOptions) {
		o.contentType = contentType
	}
}

func setBody(r *arrange.Response, action string, data []byte, opts []Option) {
	o := &bodyOptions{contentType: ContentType}
	for _, opt := range opts {
		opt(o)
	}
	r.Body(action, data, o.contentType)
}

// JSONBody encodes value with the registered Config.
func JSONBody(r *arrange.Response, value any, opts ...Option) {
	if r.Err() != nil {
		return
	}
	data, err := ConfigFrom(r.Extensions()).Marshal(value)
	if err != nil {
		r.Fail(fmt.Errorf("failed to encode JSON body: %w", err))
		return
	}
	setBody(r, "jsonBody", data, opts)
}

// JSONStringBody uses s, which must be valid JSON, as the body.
func JSONStringBody(r *arrange.Response, s string, opts ...Option) {
	if r.Err() != nil {
		return
	}
	if !gjson.Valid(s) {
		r.Fail(failure.Usagef("invalid JSON body %q", s))
		return
	}
	setBody(r, "jsonStringBody", []byte(s), opts)
}

// JSONObjectBody builds a JSON object body, keeping key insertion order.
func JSONObjectBody(r *arrange.Response, fn func(*Object), opts ...Option) {
	if r.Err() != nil {
		return
	}
	o := newObject(ConfigFrom(r.Extensions()))
	if fn != nil {
		fn(o)
	}
	data, err := o.MarshalJSON()
	if err != nil {
		r.Fail(err)
		return
	}
	setBody(r, "jsonObjectBody", data, opts)
}

// JSONArrayBody builds a JSON array body.
func JSONArrayBody(r *arrange.Response, fn func(*Array), opts ...Option) {
	if r.Err() != nil {
		return
	}
	a := newArray(ConfigFrom(r.Extensions()))
	if fn != nil {
		fn(a)
	}
	data, err := a.MarshalJSON()
	if err != nil {
		r.Fail(err)
		return
	}
	setBody(r, "jsonArrayBody", data, opts)
}

// Object is an ordered JSON object under construction. Putting an existing
// key replaces its value in place.
type Object struct {
	cfg    Config
	err    error
	keys   []string
	values map[string]json.RawMessage
}

func newObject(cfg Config) *Object {
	return &Object{cfg: cfg, values: make(map[string]json.RawMessage)}
}

func (o *Object) set(key string, raw json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

// Put encodes value under key with the configured Marshal. With the default
// encoding/json, whole floats lose their fraction: 1.0 is written as 1.
func (o *Object) Put(key string, value any) *Object {
	if o.err != nil {
		return o
	}
	raw, err := o.cfg.Marshal(value)
	if err != nil {
		o.err = fmt.Errorf("failed to encode %q: %w", key, err)
		return o
	}
	o.set(key, raw)
	return o
}

// PutNull stores null under key.
func (o *Object) PutNull(key string) *Object {
	if o.err == nil {
		o.set(key, json.RawMessage("null"))
	}
	return o
}

// PutObject stores a nested object under key.
func (o *Object) PutObject(key string, fn func(*Object)) *Object {
	if o.err != nil {
		return o
	}
	nested := newObject(o.cfg)
	if fn != nil {
		fn(nested)
	}
	raw, err := nested.MarshalJSON()
	if err != nil {
		o.err = err
		return o
	}
	o.set(key, raw)
	return o
}

// PutArray stores a nested array under key.
func (o *Object) PutArray(key string, fn func(*Array)) *Object {
	if o.err != nil {
		return o
	}
	nested := newArray(o.cfg)
	if fn != nil {
		fn(nested)
	}
	raw, err := nested.MarshalJSON()
	if err != nil {
		o.err = err
		return o
	}
	o.set(key, raw)
	return o
}

// MarshalJSON writes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(o.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Array is a JSON array under construction.
type Array struct {
	cfg    Config
	err    error
	values []json.RawMessage
}

func newArray(cfg Config) *Array {
	return &Array{cfg: cfg}
}

// Add encodes value as the next element.
func (a *Array) Add(value any) *Array {
	if a.err != nil {
		return a
	}
	raw, err := a.cfg.Marshal(value)
	if err != nil {
		a.err = fmt.Errorf("failed to encode element %d: %w", len(a.values), err)
		return a
	}
	a.values = append(a.values, raw)
	return a
}

// AddNull appends null.
func (a *Array) AddNull() *Array {
	if a.err == nil {
		a.values = append(a.values, json.RawMessage("null"))
	}
	return a
}

// AddObject appends a nested object.
func (a *Array) AddObject(fn func(*Object)) *Array {
	if a.err != nil {
		return a
	}
	nested := newObject(a.cfg)
	if fn != nil {
		fn(nested)
	}
	raw, err := nested.MarshalJSON()
	if err != nil {
		a.err = err
		return a
	}
	a.values = append(a.values, raw)
	return a
}

// AddArray appends a nested array.
func (a *Array) AddArray(fn func(*Array)) *Array {
	if a.err != nil {
		return a
	}
	nested := newArray(a.cfg)
	if fn != nil {
		fn(nested)
	}
	raw, err := nested.MarshalJSON()
	if err != nil {
		a.err = err
		return a
	}
	a.values = append(a.values, raw)
	return a
}

// MarshalJSON writes the elements in order.
func (a *Array) MarshalJSON() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
