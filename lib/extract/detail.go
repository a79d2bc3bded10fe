package extract

import (
	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Detail holds the fields every family detail page shares. The owning
// adapter fills in the id, extension and source specific pieces.
type Detail struct {
	Name        string
	Description string
	ImageURL    string
	Images      []string
	SizeText    string
	Category    string
}

// DetailPage parses the shared layout of a family detail page. The
// gallery falls back to the side panel thumbnail when the page has no
// preview pictures, and the description goes through sanitization
// before anything downstream sees it.
func DetailPage(doc *goquery.Document) Detail {
	descriptionHTML, _ := doc.Find(".content-container .main-upload .panel .panel__body").Html()

	images := []string{}
	doc.Find(".content-container .main-upload .text-center a picture.project-detail-image-main img").
		Each(func(_ int, img *goquery.Selection) {
			images = append(images, img.AttrOr("src", ""))
		})
	if len(images) == 0 {
		if thumb := doc.Find(".content-container .side-upload .panel .panel__body img").AttrOr("src", ""); thumb != "" {
			images = append(images, thumb)
		}
	}

	imageURL := ""
	if len(images) > 0 {
		imageURL = images[0]
	}

	return Detail{
		Name:        htmlutil.CleanText(doc.Find(".container #file_title").Text()),
		Description: htmlutil.SanitizeDescription(descriptionHTML),
		ImageURL:    imageURL,
		Images:      images,
		SizeText:    htmlutil.CleanText(doc.Find(".content-container .main-upload table tbody tr:first-child td:last-child").Text()),
		Category:    htmlutil.CleanText(doc.Find(".content-container .side-upload .panel__footer dl:nth-child(5) dd").Text()),
	}
}
