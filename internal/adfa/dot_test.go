package adfa

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestWriteDot(t *testing.T) {
	in, pool := decode(t, prefixYAML)
	d := build(t, in, pool, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, d.WriteDot(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "prefix", buf.Bytes())
}

func TestRangeLabel(t *testing.T) {
	tests := []struct {
		lo, ub uint32
		want   string
	}{
		{'a', 'b', "a"},
		{'a', 'z' + 1, "a-z"},
		{0, 256, "0x00-0xFF"},
		{'"', '#', "0x22"},
		{'\\', ']', "0x5C"},
		{' ', '!', "0x20"},
	}

	for _, tt := range tests {
		if got := rangeLabel(tt.lo, tt.ub); got != tt.want {
			t.Errorf("rangeLabel(%d, %d) = %q, want %q", tt.lo, tt.ub, got, tt.want)
		}
	}
}
