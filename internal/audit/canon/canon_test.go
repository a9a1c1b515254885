package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	t.Run("strips punctuation", func(t *testing.T) {
		assert.Equal(t, "12345678900", Identifier("123.456.789-00"))
		assert.Equal(t, Identifier("12345678900"), Identifier("123.456.789-00"))
	})

	t.Run("keeps short results as-is", func(t *testing.T) {
		assert.Equal(t, "12345", Identifier("12.345"))
	})

	t.Run("non-digits only yields empty", func(t *testing.T) {
		assert.Equal(t, "", Identifier("n/a"))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, in := range []string{"123.456.789-00", "12 345 678", "", "abc123"} {
			once := Identifier(in)
			assert.Equal(t, once, Identifier(once), "input %q", in)
		}
	})
}

func TestText(t *testing.T) {
	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "bruno gomes da silva", Text("  BRUNO   Gomes\tda Silva "))
	})

	t.Run("preserves diacritics", func(t *testing.T) {
		// Literal equality only; "José" and "Jose" stay distinct here.
		assert.Equal(t, "josé", Text("José"))
		assert.NotEqual(t, Text("José"), Text("Jose"))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, in := range []string{"  MARIA  DA SILVA ", "josé", "", "a  b\n c"} {
			once := Text(in)
			assert.Equal(t, once, Text(once), "input %q", in)
		}
	})
}

func TestDate(t *testing.T) {
	// Dates keep their textual form; only surrounding whitespace goes.
	assert.Equal(t, "15/01/2022", Date(" 15/01/2022 "))
	assert.Equal(t, "not-a-date", Date("not-a-date"))
}
