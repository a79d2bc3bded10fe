package extract

import (
	"net/url"
	"strconv"

	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// LastPage reads the pagination bound from a paginator element. An
// explicit "last page" link is authoritative; the "active" page number
// is only a fallback because it under-reports when the origin
// truncates its page navigation. Returns 0 when neither is present.
func LastPage(paginator *goquery.Selection) int {
	lastHref := paginator.Find("li.last a").AttrOr("href", "")
	if lastHref != "" {
		if link, err := url.Parse(lastHref); err == nil {
			if page, err := strconv.Atoi(link.Query().Get("page")); err == nil {
				return page
			}
		}
	}

	active := htmlutil.CleanText(paginator.Find("li.active a").Text())
	page, _ := strconv.Atoi(active)
	return page
}
