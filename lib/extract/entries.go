package extract

import (
	"regexp"

	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Entry is one listing row from an SFMLab-family site, before the
// owning adapter turns it into a catalog model.
type Entry struct {
	ID       string
	Name     string
	ImageURL string
	Category string
	Tags     []string
}

var entryIDRegex = regexp.MustCompile(`\d+`)

// Entries parses the listing rows of an SFMLab-family index page.
// The model id is the first digit run of the title link's href; the
// first entry tag doubles as the category.
func Entries(doc *goquery.Document) []Entry {
	var entries []Entry

	doc.Find(".content-container .entry-content .entry-list .entry").Each(func(_ int, e *goquery.Selection) {
		title := e.Find(".entry__body .entry__title a")

		var tags []string
		e.Find(".entry__tags .entry__tag").Each(func(_ int, tag *goquery.Selection) {
			if text := htmlutil.CleanText(tag.Text()); text != "" {
				tags = append(tags, text)
			}
		})
		category := ""
		if len(tags) > 0 {
			category = tags[0]
		}

		entries = append(entries, Entry{
			ID:       entryIDRegex.FindString(title.AttrOr("href", "")),
			Name:     htmlutil.CleanText(title.Text()),
			ImageURL: e.Find(".entry__heading a img").AttrOr("src", ""),
			Category: category,
			Tags:     tags,
		})
	})

	return entries
}
