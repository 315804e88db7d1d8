package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	cases := map[string]string{
		"plain":                "plain",
		"Tom &amp; Jerry":      "Tom & Jerry",
		"caf&eacute;":          "café",
		"&#8220;quoted&#8221;": "“quoted”",
		"&#x41;BC":             "ABC",
		"a&nbsp;b":             "a\u00a0b",
		"&bogus; stays":        "&bogus; stays",
		"AT&T":                 "AT&T",
	}
	for in, want := range cases {
		assert.Equal(t, want, Decode(in), in)
	}
}
