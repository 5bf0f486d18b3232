package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsOrderIndependent(t *testing.T) {
	a := GenerateKey(map[string]string{"Size": "M", "Color": "Red"})
	b := GenerateKey(map[string]string{"Color": "Red", "Size": "M"})

	assert.Equal(t, a, b)
	assert.Equal(t, "Color:Red,Size:M", a)
}

func TestParseKeyRoundTrip(t *testing.T) {
	selections := map[string]string{
		"Size":     "M",
		"Color":    "Red",
		"Material": "Cotton",
	}

	assert.Equal(t, selections, ParseKey(GenerateKey(selections)))
}

func TestParseKeySkipsMalformedSegments(t *testing.T) {
	parsed := ParseKey("Size:M,garbage,Color:Red")

	assert.Equal(t, map[string]string{"Size": "M", "Color": "Red"}, parsed)
}

func TestParseKeyEmpty(t *testing.T) {
	assert.Empty(t, ParseKey(""))
}

func TestGenerateKeyEmpty(t *testing.T) {
	assert.Equal(t, "", GenerateKey(nil))
	assert.Equal(t, "", GenerateKey(map[string]string{}))
}

func TestCombinations(t *testing.T) {
	schema := map[string][]string{
		"Size":  {"S", "M"},
		"Color": {"Red", "Blue", "Green"},
	}

	keys := Combinations(schema)

	assert.Len(t, keys, 6)
	assert.Contains(t, keys, "Color:Red,Size:S")
	assert.Contains(t, keys, "Color:Green,Size:M")
}

func TestCombinationsEmptySchema(t *testing.T) {
	assert.Empty(t, Combinations(nil))
	assert.Empty(t, Combinations(map[string][]string{}))
}

func TestMatches(t *testing.T) {
	schema := map[string][]string{
		"Size":  {"S", "M", "L"},
		"Color": {"Red", "Blue"},
	}

	assert.True(t, Matches("Color:Red,Size:M", schema))
	assert.False(t, Matches("Color:Purple,Size:M", schema))
	assert.False(t, Matches("Fit:Slim", schema))
}

func TestMatchesRejectsPartialSelections(t *testing.T) {
	schema := map[string][]string{
		"Size":  {"S", "M", "L"},
		"Color": {"Red", "Blue"},
	}

	// Every option needs a value; a key covering only some of them does
	// not name a stockable combination.
	assert.False(t, Matches("Size:M", schema))
	assert.False(t, Matches("", schema))

	assert.True(t, Matches("", nil))
	assert.True(t, Matches("", map[string][]string{}))
}
