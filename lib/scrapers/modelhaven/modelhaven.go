// Package modelhaven scrapes 3dmodelhaven.com. Unlike the SFMLab
// family the site renders its entire catalog on one page, so paging
// happens client side over the full card list.
package modelhaven

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/extract"
	"sfmhub-backend/lib/htmlutil"
	"sfmhub-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("sfmhub.scrapers.modelhaven")

const DefaultBaseURL = "https://3dmodelhaven.com"

// the site has no server side paging, listings get windowed locally
const pageSize = 25

type ClientOptions struct {
	// defaults to DefaultBaseURL, overridable for tests
	BaseURL    string
	Instrument restyutil.InstrumentOutput
}

type Client struct {
	baseURL string
	http    *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	httpClient, err := restyutil.NewSiteClient(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	restyutil.InstrumentClient(httpClient, tracer, opts.Instrument)

	return &Client{baseURL: opts.BaseURL, http: httpClient}, nil
}

func (c *Client) Source() string {
	return "modelhaven"
}

func (c *Client) ListModels(ctx context.Context, q catalog.Query) (catalog.Listing, error) {
	ctx, span := tracer.Start(ctx, "client:ListModels")
	defer span.End()

	req := c.http.R().SetQueryParam("o", "date_published")
	if catalog.FacetSet(q.Category) {
		req.SetQueryParam("c", q.Category)
	}
	if q.Search != "" {
		req.SetQueryParam("s", q.Search)
	}

	doc, err := c.fetchDoc(ctx, req, "/models")
	if err != nil {
		return catalog.Listing{}, err
	}

	var models []catalog.Model
	doc.Find("#item-grid a").Each(func(_ int, card *goquery.Selection) {
		_, id, found := strings.Cut(card.AttrOr("href", ""), "?m=")
		if !found || id == "" {
			return
		}

		image := card.Find(".grid-item img.thumbnail").AttrOr("data-src", "")
		if image != "" {
			image = c.baseURL + image
		}

		models = append(models, catalog.Model{
			ID:        id,
			Name:      htmlutil.CleanText(card.Find(".grid-item .title-line").Text()),
			ImageURL:  image,
			Extension: catalog.ExtBlender,
		})
	})

	listing := catalog.Listing{
		Models:     pageWindow(models, q.Page),
		Categories: c.categories(doc),
		Licenses:   []catalog.License{},
		TotalPages: (len(models) + pageSize - 1) / pageSize,
	}

	span.SetAttributes(attribute.Int("models", len(listing.Models)))
	return listing, nil
}

// pageWindow slices one page worth of cards out of the full catalog.
// Page 0 and 1 both mean the first page; pages past the end are empty.
func pageWindow(models []catalog.Model, page int) []catalog.Model {
	if page > 0 {
		page--
	}

	from := page * pageSize
	if from >= len(models) {
		return []catalog.Model{}
	}
	to := min(from+pageSize, len(models))
	return models[from:to]
}

// categories come from the sidebar link list; entries without a c=
// query param are navigation links, not categories.
func (c *Client) categories(doc *goquery.Document) []catalog.Category {
	categories := []catalog.Category{}

	doc.Find(".category-list-wrapper #category-list a").Each(func(i int, a *goquery.Selection) {
		_, slug, found := strings.Cut(a.AttrOr("href", ""), "c=")
		if !found || slug == "" {
			return
		}

		categories = append(categories, catalog.Category{
			ID:       i,
			ParentID: -1,
			Slug:     slug,
			Name:     htmlutil.CleanText(a.Find("li").Text()),
		})
	})

	return categories
}

func (c *Client) GetModel(ctx context.Context, id string) (catalog.ModelDetail, error) {
	ctx, span := tracer.Start(ctx, "client:GetModel")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return catalog.ModelDetail{}, catalog.ErrInvalidIdentifier
	}
	span.SetAttributes(attribute.String("id", id))

	req := c.http.R().SetQueryParam("m", id)
	doc, err := c.fetchDoc(ctx, req, "/models")
	if err != nil {
		return catalog.ModelDetail{}, err
	}

	descriptionHTML, _ := doc.Find("#item-info .item-description").Html()

	images := []string{}
	doc.Find("#item-preview img").Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("data-src", img.AttrOr("src", ""))
		if src != "" {
			images = append(images, c.baseURL+src)
		}
	})
	if len(images) == 0 {
		if src := doc.Find("#item-info img.thumbnail").AttrOr("data-src", ""); src != "" {
			images = append(images, c.baseURL+src)
		}
	}
	imageURL := ""
	if len(images) > 0 {
		imageURL = images[0]
	}

	// files are linked directly, no intermediate download page
	links := []catalog.DownloadLink{}
	doc.Find("#download-list a").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "https://") {
			href = c.baseURL + href
		}

		links = append(links, catalog.DownloadLink{
			URL:      href,
			Filename: extract.FilenameFromURL(href),
			SizeText: htmlutil.CleanText(a.Find(".download-size").Text()),
		})
	})

	return catalog.ModelDetail{
		Model: catalog.Model{
			ID:        id,
			Name:      htmlutil.CleanText(doc.Find("#item-info .item-name").Text()),
			ImageURL:  imageURL,
			Extension: catalog.ExtBlender,
		},
		Description:   htmlutil.SanitizeDescription(descriptionHTML),
		Images:        images,
		DownloadLinks: links,
		Comments:      []catalog.Comment{},
	}, nil
}

func (c *Client) fetchDoc(ctx context.Context, req *resty.Request, endpoint string) (*goquery.Document, error) {
	res, err := req.SetContext(ctx).Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrSourceUnavailable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: status %d", catalog.ErrSourceUnavailable, res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrSourceUnavailable, err)
	}
	return doc, nil
}
