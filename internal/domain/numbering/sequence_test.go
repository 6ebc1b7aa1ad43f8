package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	t.Run("pads to eight digits", func(t *testing.T) {
		assert.Equal(t, "00000001", Format(1))
		assert.Equal(t, "00000042", Format(42))
		assert.Equal(t, "00012345", Format(12345))
	})

	t.Run("does not truncate values wider than eight digits", func(t *testing.T) {
		assert.Equal(t, "123456789", Format(123456789))
	})
}
