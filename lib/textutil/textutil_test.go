package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"Hello", "hello"},
		{"  Hola   Mundo \n", "hola mundo"},
		{"a\tb\r\nc", "a b c"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.out, Normalize(c.in), c.in)
	}
}

func TestFlatten(t *testing.T) {
	require.Equal(t, "a b c d", Flatten("a\r\nb\nc\rd"))
	require.Equal(t, "a  b", Flatten("a\n\nb"))
	require.Equal(t, "no breaks", Flatten("no breaks"))
}
