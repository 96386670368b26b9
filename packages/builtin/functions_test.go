package builtin

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRegistry() *Registry {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	return r
}

func TestExpand(t *testing.T) {
	t.Setenv("APYTHIA_TEST_USER", "john")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no calls", input: "plain text", want: "plain text"},
		{name: "now", input: "{{$now()}}", want: "2024-03-15T10:30:00Z"},
		{name: "date default", input: "day={{$date()}}", want: "day=2024-03-15"},
		{name: "date layout", input: "{{ $date('2006/01') }}", want: "2024/03"},
		{name: "timestamp", input: "{{$timestamp()}}", want: "1710498600"},
		{name: "timestampMs", input: "{{$timestampMs()}}", want: "1710498600000"},
		{name: "base64", input: `Basic {{$base64("user:pass")}}`, want: "Basic dXNlcjpwYXNz"},
		{name: "env", input: "{{$env(APYTHIA_TEST_USER)}}", want: "john"},
		{name: "env fallback", input: "{{$env(APYTHIA_TEST_UNSET, 'guest')}}", want: "guest"},
		{name: "several", input: "{{$env(APYTHIA_TEST_USER)}}-{{$date()}}", want: "john-2024-03-15"},
	}

	r := fixedRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Expand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_RandomValues(t *testing.T) {
	r := NewRegistry()

	id, err := r.Expand("{{$uuid()}}")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	n, err := r.Expand("{{$random(5, 7)}}")
	require.NoError(t, err)
	v, err := strconv.Atoi(n)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 5)
	assert.LessOrEqual(t, v, 7)

	s, err := r.Expand("{{$randomString(12)}}")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9]{12}$`), s)
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{input: "{{$nope()}}", err: "unknown function $nope"},
		{input: "{{$random(a, 2)}}", err: `$random: min argument "a" is not a valid integer`},
		{input: "{{$random(5, 1)}}", err: "$random: max 1 is less than min 5"},
		{input: "{{$randomString(-1)}}", err: `$randomString: length argument "-1" is not a valid length`},
		{input: "{{$env()}}", err: "$env: missing variable name"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := r.Expand(tt.input)
			assert.EqualError(t, err, tt.err)
		})
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("greet", func(args []string) (string, error) { return "hi " + args[0], nil })

	got, err := r.Expand("{{$greet(bob)}}")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", got)
}

func TestParseArgs(t *testing.T) {
	assert.Nil(t, parseArgs(" "))
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
}

func TestSetLookup(t *testing.T) {
	r := NewRegistry()
	r.SetLookup(func(name string) (string, bool) {
		if name == "TOKEN" {
			return "from-file", true
		}
		return "", false
	})

	got, err := r.Expand("{{$env(TOKEN)}}/{{$env(MISSING, none)}}")
	require.NoError(t, err)
	assert.Equal(t, "from-file/none", got)
}
