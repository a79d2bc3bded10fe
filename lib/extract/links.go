package extract

import (
	"context"
	"regexp"
	"strings"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DownloadRow is one candidate file row of a detail-page table. The
// origins link an intermediate page per file rather than the file
// itself; Href points at that intermediate page.
type DownloadRow struct {
	Href     string
	Filename string
	SizeText string
}

// DownloadRows collects the candidate file rows of a detail page,
// pairing each row's intermediate link with the filename and size
// shown on that same row.
func DownloadRows(doc *goquery.Document) []DownloadRow {
	var rows []DownloadRow

	doc.Find(".content-container .main-upload table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		href := tr.Find("td a").First().AttrOr("href", "")
		if href == "" {
			return
		}

		rows = append(rows, DownloadRow{
			Href:     href,
			Filename: htmlutil.CleanText(tr.Find("td .js-edit-input__wrapper strong").First().Text()),
			SizeText: htmlutil.CleanText(tr.Find("td").Last().Text()),
		})
	})

	return rows
}

// PageFetcher fetches one intermediate download page and returns it
// parsed. Adapters supply it so the primitive stays free of HTTP
// concerns.
type PageFetcher func(ctx context.Context, href string) (*goquery.Document, error)

var filenameTokenRegex = regexp.MustCompile(`[a-zA-Z0-9_.\-]+`)

// FilenameFromURL derives a filename from a terminal download URL,
// for rows and anchors that never state one.
func FilenameFromURL(link string) string {
	if i := strings.Index(link, "?"); i >= 0 {
		link = link[:i]
	}
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return filenameTokenRegex.FindString(link)
}

// ResolveLinks performs the two-hop download link resolution: each
// row's intermediate page is fetched sequentially, in row order, and
// the terminal link is read from its description paragraph. The
// origins are fragile under bursts, so there is no parallel fan-out.
// A mid-sequence fetch failure returns the links collected so far
// together with the error; partial success beats total failure.
func ResolveLinks(ctx context.Context, fetch PageFetcher, rows []DownloadRow) ([]catalog.DownloadLink, error) {
	ctx, span := tracer.Start(ctx, "ResolveLinks")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(rows)))

	links := []catalog.DownloadLink{}
	for _, row := range rows {
		page, err := fetch(ctx, row.Href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch intermediate download page")
			return links, err
		}

		href := page.Find(".content-container .main-upload .project-description-div p:first-child a").AttrOr("href", "")
		if href == "" {
			continue
		}

		filename := row.Filename
		if filename == "" {
			filename = FilenameFromURL(href)
		}

		links = append(links, catalog.DownloadLink{
			URL:      href,
			Filename: filename,
			SizeText: row.SizeText,
		})
	}

	return links, nil
}
