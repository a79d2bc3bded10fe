package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtensionForCategory(t *testing.T) {
	cases := []struct {
		category string
		fallback string
		expected string
	}{
		{category: "Blender File", fallback: ExtSFM, expected: ".blend"},
		{category: "3ds Max", fallback: ExtSFM, expected: ".max"},
		{category: "Cinema 4D project", fallback: ExtSFM, expected: ".c4d"},
		{category: "Autodesk Maya", fallback: ExtSFM, expected: ".ma"},
		{category: "Source Filmmaker", fallback: ExtSFM, expected: ".sfm"},
		{category: "", fallback: ExtSFM, expected: ".sfm"},
		{category: "Unknown Platform", fallback: ExtBlender, expected: ".blend"},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, ExtensionForCategory(test.category, test.fallback), test.category)
	}
}
