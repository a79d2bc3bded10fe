package catalog

import "strings"

const (
	ExtSFM     = ".sfm"
	ExtBlender = ".blend"
)

// ExtensionForCategory guesses a file extension from the category or
// platform name shown on the origin site, for sources that never
// state one explicitly. Unrecognized text maps to the adapter's
// fallback extension.
func ExtensionForCategory(category, fallback string) string {
	name := strings.ToLower(category)
	switch {
	case strings.Contains(name, "max"):
		return ".max"
	case strings.Contains(name, "blender"):
		return ".blend"
	case strings.Contains(name, "cinema 4d"):
		return ".c4d"
	case strings.Contains(name, "maya"):
		return ".ma"
	}
	return fallback
}
