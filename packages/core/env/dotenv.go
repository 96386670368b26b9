package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Vars holds variables read from .env files.
type Vars map[string]string

// Lookup returns the process environment value for name, falling back to v.
func (v Vars) Lookup(name string) (string, bool) {
	if value, ok := os.LookupEnv(name); ok {
		return value, true
	}
	value, ok := v[name]
	return value, ok
}

// Load parses each file in order; later files override earlier ones.
func Load(paths ...string) (Vars, error) {
	result := make(Vars)
	for _, path := range paths {
		vars, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		for k, val := range vars {
			result[k] = val
		}
	}
	return result, nil
}

func loadFile(path string) (Vars, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	vars, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

// Parse reads KEY=value lines. Blank lines and # comments are skipped, an
// "export " prefix is allowed, and values may be wrapped in single or double
// quotes.
func Parse(r io.Reader) (Vars, error) {
	result := make(Vars)
	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("line %d: expected KEY=value", lineNo)
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return result, nil
}
