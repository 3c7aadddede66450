package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "987654****", MaskPhone("9876543210"))
	assert.Equal(t, "***", MaskPhone("123"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "as***@x.com", MaskEmail("asha@x.com"))
	assert.Equal(t, "a***@x.com", MaskEmail("a@x.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
}
