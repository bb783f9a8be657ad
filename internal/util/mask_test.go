package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"john.doe@test.me":   "j…@t….me",
		" Jack@Example.COM ": "j…@e….com",
		"a@b.c":              "a@b.c",
		"no-at-sign":         "n…n",
		"":                   "",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), in)
	}
}

func TestMask(t *testing.T) {
	require.Equal(t, "", Mask(""))
	require.Equal(t, "***", Mask("abc"))
	require.Equal(t, "d…1", Mask("device-1"))
}
