package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "  Stylized   Couch \n", expected: "Stylized Couch"},
		{in: "\tplain\t", expected: "plain"},
		{in: "already clean", expected: "already clean"},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.in))
	}
}

func TestSanitizeDescriptionDropsEmptyBlocks(t *testing.T) {
	out := SanitizeDescription(`<p></p><p>A fine couch model.</p><p>   </p>`)

	require.NotContains(t, out, "<p></p>")
	require.Contains(t, out, "<p>A fine couch model.</p>")
}

func TestSanitizeDescriptionStripsScripts(t *testing.T) {
	out := SanitizeDescription(`<p>safe</p><script>alert(1)</script>`)

	require.NotContains(t, out, "script")
	require.Contains(t, out, "safe")
}

func TestSanitizeDescriptionKeepsImages(t *testing.T) {
	out := SanitizeDescription(`<p><img src="https://example.com/a.png"></p>`)

	require.Contains(t, out, "img")
}
