package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	b := []byte("hunter2")
	WipeByteArray(b)
	assert.Equal(t, make([]byte, 7), b)

	WipeByteArray(nil)
}
