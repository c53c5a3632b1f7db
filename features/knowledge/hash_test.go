package knowledge

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	t.Run("KnownDigest", func(t *testing.T) {
		// sha256("hello world")
		assert.Equal(t,
			"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
			ContentHash("hello world"))
	})

	t.Run("EmptyString", func(t *testing.T) {
		assert.Equal(t,
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			ContentHash(""))
	})

	t.Run("Shape", func(t *testing.T) {
		hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)
		for _, text := range []string{"a", "some longer text", "multi\nline\ncontent", "ünïcode ✓"} {
			assert.Regexp(t, hexRe, ContentHash(text))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, ContentHash("same input"), ContentHash("same input"))
		assert.NotEqual(t, ContentHash("input a"), ContentHash("input b"))
	})
}
