package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageString(t *testing.T) {
	img := Image{Name: "postgres", Tag: "13"}
	assert.Equal(t, "postgres:13", img.String())
}

func TestContainerShortIDTruncatesToTwelveChars(t *testing.T) {
	c := &Container{ID: "0123456789abcdef0123"}
	assert.Equal(t, "0123456789ab", c.shortID())
}

func TestContainerShortIDLeavesShortIDsUnchanged(t *testing.T) {
	c := &Container{ID: "abc123"}
	assert.Equal(t, "abc123", c.shortID())
}
