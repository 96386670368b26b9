package http

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryParam is one name/value pair of a query string. Value is nil for "?name"
// and points to "" for "?name=".
type QueryParam struct {
	Name  string
	Value *string
}

// ParseQuery splits a raw query string keeping parameter order and the
// difference between a missing and an empty value.
func ParseQuery(rawQuery string) ([]QueryParam, error) {
	var params []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		name, err := url.QueryUnescape(kv[0])
		if err != nil {
			return nil, fmt.Errorf("invalid query parameter name %q: %w", kv[0], err)
		}
		param := QueryParam{Name: name}
		if len(kv) == 2 {
			value, err := url.QueryUnescape(kv[1])
			if err != nil {
				return nil, fmt.Errorf("invalid value for query parameter %q: %w", name, err)
			}
			param.Value = &value
		}
		params = append(params, param)
	}
	return params, nil
}

// QueryValues groups ParseQuery's result by name.
func QueryValues(rawQuery string) (map[string][]*string, error) {
	params, err := ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]*string, len(params))
	for _, p := range params {
		result[p.Name] = append(result[p.Name], p.Value)
	}
	return result, nil
}

// FormatQueryValue renders an optional query value for messages.
func FormatQueryValue(v *string) string {
	if v == nil {
		return "<no value>"
	}
	return fmt.Sprintf("%q", *v)
}
