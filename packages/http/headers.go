package http

import (
	nethttp "net/http"
	"sort"
	"strings"
)

// ContentTypeHeader is the name of the Content-Type header.
const ContentTypeHeader = "Content-Type"

// Headers maps header names to their values. Keys keep the spelling they were
// added with; every accessor compares names case-insensitively.
type Headers map[string][]string

// HeadersFrom copies a net/http header map.
func HeadersFrom(h nethttp.Header) Headers {
	result := make(Headers, len(h))
	for k, v := range h {
		result[k] = append([]string(nil), v...)
	}
	return result
}

// Values returns every value stored under name, in any spelling.
func (h Headers) Values(name string) []string {
	var result []string
	for _, k := range h.sortedKeys() {
		if strings.EqualFold(k, name) {
			result = append(result, h[k]...)
		}
	}
	return result
}

// Get returns the first value of name, or "".
func (h Headers) Get(name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Has reports whether name is present.
func (h Headers) Has(name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Add appends value under name, reusing an existing key that differs only in case.
func (h Headers) Add(name, value string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			h[k] = append(h[k], value)
			return
		}
	}
	h[name] = []string{value}
}

// Names returns the header names in sorted order.
func (h Headers) Names() []string {
	return h.sortedKeys()
}

// Clone returns a deep copy.
func (h Headers) Clone() Headers {
	result := make(Headers, len(h))
	for k, v := range h {
		result[k] = append([]string(nil), v...)
	}
	return result
}

// ToNetHTTP converts to a net/http header map with canonical keys, so names
// differing only in case end up under one key.
func (h Headers) ToNetHTTP() nethttp.Header {
	result := make(nethttp.Header, len(h))
	for _, k := range h.sortedKeys() {
		for _, v := range h[k] {
			result.Add(k, v)
		}
	}
	return result
}

func (h Headers) sortedKeys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
