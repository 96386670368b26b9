package builtin

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func computes the replacement text for one call.
type Func func(args []string) (string, error)

// Registry maps function names to implementations.
type Registry struct {
	funcs  map[string]Func
	now    func() time.Time
	lookup func(string) (string, bool)
}

// NewRegistry returns a registry holding the default functions.
func NewRegistry() *Registry {
	r := &Registry{
		funcs:  make(map[string]Func),
		now:    time.Now,
		lookup: os.LookupEnv,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["uuid"] = funcUUID
	r.funcs["now"] = r.funcNow
	r.funcs["date"] = r.funcDate
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["timestampMs"] = r.funcTimestampMs
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["env"] = r.funcEnv
}

// SetLookup replaces the variable source of env(), os.LookupEnv by default.
func (r *Registry) SetLookup(lookup func(string) (string, bool)) {
	if lookup != nil {
		r.lookup = lookup
	}
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var callPattern = regexp.MustCompile(`\{\{\s*\$(\w+)\(([^)]*)\)\s*\}\}`)

// Expand replaces every {{$name(args)}} in s. Unknown functions and failing
// calls are reported; the first error stops expansion.
func (r *Registry) Expand(s string) (string, error) {
	var firstErr error
	result := callPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		groups := callPattern.FindStringSubmatch(match)
		value, err := r.Call(groups[1], parseArgs(groups[2]))
		if err != nil {
			firstErr = err
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Call invokes the named function.
func (r *Registry) Call(name string, args []string) (string, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return "", fmt.Errorf("unknown function $%s", name)
	}
	value, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("$%s: %w", name, err)
	}
	return value, nil
}

func parseArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(args, strings.TrimSpace(current.String()))
}

func funcUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

func (r *Registry) funcNow(_ []string) (string, error) {
	return r.now().UTC().Format(time.RFC3339), nil
}

func (r *Registry) funcDate(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) >= 1 && args[0] != "" {
		layout = args[0]
	}
	return r.now().UTC().Format(layout), nil
}

func (r *Registry) funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(r.now().Unix(), 10), nil
}

func (r *Registry) funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(r.now().UnixMilli(), 10), nil
}

func funcRandom(args []string) (string, error) {
	lo, hi := 0, 100
	if len(args) >= 2 {
		var err error
		if lo, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("min argument %q is not a valid integer", args[0])
		}
		if hi, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("max argument %q is not a valid integer", args[1])
		}
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is less than min %d", hi, lo)
	}
	return strconv.Itoa(rand.IntN(hi-lo+1) + lo), nil
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) (string, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return "", fmt.Errorf("length argument %q is not a valid length", args[0])
		}
		length = v
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(result), nil
}

func funcBase64(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func (r *Registry) funcEnv(args []string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", fmt.Errorf("missing variable name")
	}
	if v, ok := r.lookup(args[0]); ok {
		return v, nil
	}
	if len(args) >= 2 {
		return args[1], nil
	}
	return "", nil
}
