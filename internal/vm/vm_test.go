package vm

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEndToEnd(t *testing.T) {
	cases := []struct {
		src string
		val vmvalue.Value
	}{
		{"3 + 2 * 5", vmvalue.Int64(13)},
		{"(let f = fun (n) if n < 2 then n else f(n-1) + f(n-2)) f(10)", vmvalue.Int64(55)},
		{"[1,2,3][2]", vmvalue.Int64(3)},
	}

	for _, c := range cases {
		v := New()
		got, err := v.Run([]byte(c.src), "test")
		require.NoError(t, err, c.src)
		assert.True(t, vmvalue.Equals(c.val, got), "%q: want %+v got %+v", c.src, c.val, got)
	}
}

func TestRunUsesConfiguredStdoutForPrintln(t *testing.T) {
	var out bytes.Buffer
	v := New(WithStdout(&out))
	_, err := v.Run([]byte("println('hi')"), "test")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.String())
}

func TestWithGlobalSeedsABinding(t *testing.T) {
	v := New(WithGlobal("answer", vmvalue.Int64(42)))
	got, err := v.Run([]byte("answer"), "test")
	require.NoError(t, err)
	assert.True(t, vmvalue.Equals(vmvalue.Int64(42), got))
}

func TestWithHeapSizeIsRespected(t *testing.T) {
	v := New(WithHeapSize(1 << 12))
	_, err := v.Run([]byte("1"), "test")
	require.NoError(t, err)
	assert.Contains(t, v.Stats(), "/ 4.1 kB")
}

func TestSessionIDDefaultsToUUID(t *testing.T) {
	v := New()
	assert.NotEmpty(t, v.SessionID())
	_, err := uuid.Parse(v.SessionID())
	assert.NoError(t, err)
}

func TestWithSessionIDOverride(t *testing.T) {
	v := New(WithSessionID("fixed-id"))
	assert.Equal(t, "fixed-id", v.SessionID())
}

func TestParseFailureIsReturnedAsError(t *testing.T) {
	v := New()
	_, err := v.Run([]byte("fun (x,y)"), "test")
	assert.Error(t, err)
}
