package ua

import (
	"testing"

	surfer "github.com/avct/uasurfer"
	"github.com/stretchr/testify/assert"
)

func TestParse_Chrome(t *testing.T) {
	info := Parse("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.6422.60 Safari/537.36")

	assert.Equal(t, "Chrome", info.Browser)
	assert.Equal(t, "125.0.6422", info.Version)
	assert.Equal(t, "Desktop", info.Device)
	assert.False(t, info.IsBot)
	assert.Equal(t, "Chrome 125/"+info.OS+"/Desktop", info.Label())
}

func TestParse_Empty(t *testing.T) {
	info := Parse("")
	assert.Equal(t, "Other", info.Device)
	assert.Equal(t, "", info.Version)
}

func TestVersionToString(t *testing.T) {
	cases := map[surfer.Version]string{
		{}:                              "",
		{Major: 17}:                     "17",
		{Major: 17, Minor: 3}:           "17.3",
		{Major: 17, Minor: 3, Patch: 1}: "17.3.1",
	}
	for in, want := range cases {
		assert.Equal(t, want, versionToString(in))
	}
}
