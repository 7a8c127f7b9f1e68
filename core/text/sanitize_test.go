package text

import (
	"strings"
	"testing"

	"github.com/siherrmann/hiersearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Run("Collapses spaces and trims", func(t *testing.T) {
		assert.Equal(t, "Hello world", Sanitize("  Hello \t  world  "))
	})

	t.Run("Whitespace runs with a newline become one newline", func(t *testing.T) {
		assert.Equal(t, "First line\nSecond line", Sanitize("First line  \n\n  Second line\n"))
	})

	t.Run("Removes control and zero-width characters", func(t *testing.T) {
		assert.Equal(t, "zerowidth", Sanitize("zero\u200bwidth\u0007"))
		assert.Equal(t, "bom", Sanitize("\ufeffbom"))
		assert.Equal(t, "softhyphen", Sanitize("soft\u00adhyphen"))
	})

	t.Run("Applies compatibility normalization", func(t *testing.T) {
		assert.Equal(t, "first", Sanitize("\ufb01rst"))
		assert.Equal(t, "ABC 12", Sanitize("\uff21\uff22\uff23\u300012"))
	})

	t.Run("Composes accents", func(t *testing.T) {
		assert.Equal(t, "caf\u00e9", Sanitize("cafe\u0301"))
	})

	t.Run("Empty and blank text", func(t *testing.T) {
		assert.Equal(t, "", Sanitize(""))
		assert.Equal(t, "", Sanitize(" \n\t "))
	})

	t.Run("Is idempotent", func(t *testing.T) {
		inputs := []string{
			"  Hello \t  world  ",
			"a\u200d\u0301 b",
			"e\u200b\u0301",
			"x\n \n y z",
			"\ufb01ne \uff21  end",
			"line\r\nbreak",
			"",
		}
		for _, input := range inputs {
			once := Sanitize(input)
			assert.Equal(t, once, Sanitize(once), "input %q", input)
		}
	})
}

func TestSanitizeLinks(t *testing.T) {
	t.Run("Link offsets follow collapsed whitespace", func(t *testing.T) {
		raw := "\t\tHello   world link"
		links := []model.Link{{Path: "/l", Start: strings.Index(raw, "link"), Name: "link"}}

		cleaned, remapped := SanitizeLinks(raw, links)

		assert.Equal(t, "Hello world link", cleaned)
		require.Len(t, remapped, 1)
		assert.Equal(t, 12, remapped[0].Start)
		assert.Equal(t, "/l", remapped[0].Path)
	})

	t.Run("Link offsets follow normalization length changes", func(t *testing.T) {
		raw := "\ufb01rst link"
		links := []model.Link{{Path: "/a", Start: strings.Index(raw, "link"), Name: "link"}}

		cleaned, remapped := SanitizeLinks(raw, links)

		assert.Equal(t, "first link", cleaned)
		assert.Equal(t, 6, remapped[0].Start)
	})

	t.Run("Link starting with an expanded character keeps its start", func(t *testing.T) {
		raw := "café \ufb01 \ufb01le"
		links := []model.Link{{Path: "u", Start: strings.LastIndex(raw, "\ufb01"), Name: "\ufb01le"}}

		cleaned, remapped := SanitizeLinks(raw, links)

		assert.Equal(t, "café fi file", cleaned)
		require.Len(t, remapped, 1)
		assert.Equal(t, 9, remapped[0].Start)
		assert.Equal(t, "file", remapped[0].Name)
		assert.True(t, strings.HasPrefix(cleaned[remapped[0].Start:], remapped[0].Name))
	})

	t.Run("Out of range offsets are clamped", func(t *testing.T) {
		cleaned, remapped := SanitizeLinks("abc", []model.Link{{Start: -4}, {Start: 99}})

		assert.Equal(t, "abc", cleaned)
		assert.Equal(t, 0, remapped[0].Start)
		assert.Equal(t, 3, remapped[1].Start)
	})

	t.Run("Does not modify the input links", func(t *testing.T) {
		links := []model.Link{{Path: "/a", Start: 3, Name: " a "}}

		_, remapped := SanitizeLinks("   a", links)

		assert.Equal(t, 3, links[0].Start)
		assert.Equal(t, 0, remapped[0].Start)
		assert.Equal(t, "a", remapped[0].Name)
	})
}
