package extract

import (
	"regexp"
	"strings"
	"time"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var postedOnRegex = regexp.MustCompile(`posted\s+on\s+(.+)$`)

// ordered from strictest to loosest, the origins render timestamps in
// several inconsistent shapes (full vs. abbreviated month, with and
// without minutes, punctuation stripped on the comments endpoint)
var commentDateFormats = []string{
	"January 2, 2006, 3:04 pm",
	"January 2, 2006, 3 pm",
	"Jan. 2, 2006, 3:04 pm",
	"Jan. 2, 2006, 3 pm",
	"January 2 2006 3:04 pm",
	"Jan 2 2006 3:04 pm",
	"Jan 2 2006 3 pm",
}

var meridiemReplacer = strings.NewReplacer(
	"a.m.", "am",
	"p.m.", "pm",
	"A.M.", "am",
	"P.M.", "pm",
	" AM", " am",
	" PM", " pm",
)

// ParseCommentDate tries each candidate timestamp format in order and
// returns the epoch milliseconds (UTC) of the first success. Comments
// are best-effort metadata, so unparseable text yields 0 rather than
// an error.
func ParseCommentDate(text string) int64 {
	text = htmlutil.CleanText(text)
	text = meridiemReplacer.Replace(text)
	text = strings.TrimSuffix(text, ".")

	for _, layout := range commentDateFormats {
		ts, err := time.Parse(layout, text)
		if err == nil {
			return ts.UnixMilli()
		}
	}
	return 0
}

// Comments parses the inline comment blocks some family sites render
// on the detail page itself. The username element is missing on older
// page variants, in which case the first whitespace-delimited token of
// the meta line stands in.
func Comments(doc *goquery.Document) []catalog.Comment {
	comments := []catalog.Comment{}

	doc.Find(".comments .comment").Each(func(_ int, c *goquery.Selection) {
		meta := htmlutil.CleanText(c.Find(".comment__meta .comment__meta-left").Text())

		postedAt := int64(0)
		if groups := postedOnRegex.FindStringSubmatch(meta); len(groups) == 2 {
			postedAt = ParseCommentDate(groups[1])
		}

		username := htmlutil.CleanText(c.Find(".comment__meta .comment__meta-left .username").Text())
		if username == "" {
			if fields := strings.Fields(meta); len(fields) > 0 {
				username = fields[0]
			}
		}

		comments = append(comments, catalog.Comment{
			Username:  username,
			AvatarURL: c.Find(".comment__body .comment_avatar").First().AttrOr("src", ""),
			Message:   htmlutil.CleanText(c.Find(".comment__body .comment__content .content").Text()),
			PostedAt:  postedAt,
		})
	})

	return comments
}

var datePunctReplacer = strings.NewReplacer(";", "", ",", "", ".", "")

// CommentElements parses SFMLab's separate comments endpoint, which
// renders one <comment-element> custom tag per comment with all the
// data in attributes. Relative avatar paths are resolved against
// baseURL.
func CommentElements(doc *goquery.Document, baseURL string) []catalog.Comment {
	comments := []catalog.Comment{}

	doc.Find("comment-element").Each(func(_ int, c *goquery.Selection) {
		avatar := c.AttrOr("useravatar", "")
		if avatar != "" && !strings.HasPrefix(avatar, "https://") {
			avatar = baseURL + avatar
		}

		date := datePunctReplacer.Replace(c.AttrOr("submit_date", ""))

		comments = append(comments, catalog.Comment{
			Username:  c.AttrOr("username", ""),
			AvatarURL: avatar,
			Message:   c.AttrOr("comment", ""),
			PostedAt:  ParseCommentDate(date),
		})
	})

	return comments
}
