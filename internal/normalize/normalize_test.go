package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName_LowercasesAndTrims(t *testing.T) {
	assert.Equal(t, "lök", Key("  Lök "))
	assert.Equal(t, "mjölk", Key("MJÖLK"))
	assert.Equal(t, "crème fraîche", Key("Crème-Fraîche"))
}

func TestName_StripsQuantityNoise(t *testing.T) {
	cases := map[string]string{
		"2 dl mjölk":                "mjölk",
		"500g köttfärs":             "köttfärs",
		"1,5 kg potatis":            "potatis",
		"½ tsk salt":                "salt",
		"ca 3 st ägg":               "ägg",
		"Arla Mjölk 3% 1l":          "arla mjölk",
		"Tomater, krossade (400 g)": "tomater krossade",
		"salt.":                     "salt",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(in), "Key(%q)", in)
	}
}

func TestName_KeepsUnitWordsWithoutQuantity(t *testing.T) {
	// "burk" only counts as noise right after an amount.
	assert.Equal(t, "burk tonfisk", Key("Burk tonfisk"))
	assert.Equal(t, "ca nötter", Key("ca nötter"))
}

func TestName_EmptyInputIsUnmatchable(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n", "2 dl", "!!!", "100%"} {
		r := Name(in)
		assert.Empty(t, r.NormalizedName, "Name(%q)", in)
		assert.False(t, r.Matchable(), "Name(%q).Matchable()", in)
	}
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"Lök", "2 dl Mjölk", "Crème-Fraîche", "ca 2 st ägg", "Burk tonfisk",
		"Arla Mjölk 3% 1l", "vitamin b12", "  ", "x.5l", "ÅÄÖ åäö",
		"Tomater, krossade (400 g)", "1/2 cup sugar",
	}
	for _, in := range inputs {
		once := Name(in)
		twice := Name(once.NormalizedName)
		require.Equal(t, once, twice, "Name not idempotent for %q", in)
	}
}

func TestName_ComposesDecomposedInput(t *testing.T) {
	decomposed := "lo\u0308k" // o + combining diaeresis
	assert.Equal(t, Key("lök"), Key(decomposed))
}

func TestName_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, "gul lök", Key("Gul Lök, 2 st"))
	}
}
