package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var descriptionPolicy = bluemonday.UGCPolicy()

// SanitizeDescription filters untrusted description markup from an
// origin site down to user-generated-content tags and drops elements
// whose text content is whitespace-only. The origins pad descriptions
// with empty <p></p> blocks that must not reach API consumers.
func SanitizeDescription(rawHTML string) string {
	clean := descriptionPolicy.Sanitize(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return strings.TrimSpace(clean)
	}

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 && !s.Is("img") {
			s.Remove()
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return strings.TrimSpace(clean)
	}
	return strings.TrimSpace(out)
}
