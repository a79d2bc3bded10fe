// Package open3dlab scrapes open3dlab.com, the safe-for-work member
// of the SFMLab family. Comments live inline on the detail page
// rather than behind a separate endpoint.
package open3dlab

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/extract"
	"sfmhub-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("sfmhub.scrapers.open3dlab")

const DefaultBaseURL = "https://open3dlab.com"

type ClientOptions struct {
	// defaults to DefaultBaseURL, overridable for tests
	BaseURL    string
	Instrument restyutil.InstrumentOutput
}

type Client struct {
	http *resty.Client
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

	return &Client{http: httpClient}, nil
}

func (c *Client) Source() string {
	return "open3dlab"
}

func (c *Client) ListModels(ctx context.Context, q catalog.Query) (catalog.Listing, error) {
	ctx, span := tracer.Start(ctx, "client:ListModels")
	defer span.End()

	req := c.http.R()
	if catalog.FacetSet(q.Category) {
		req.SetQueryParam("category", q.Category)
	}
	if catalog.FacetSet(q.License) {
		req.SetQueryParam("license", q.License)
	}
	if q.Order == "DESC" {
		req.SetQueryParam("order_by", "created")
	}
	if q.Search != "" {
		req.SetQueryParam("search_text", q.Search)
	}
	if q.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(q.Page))
	}

	doc, err := c.fetchDoc(ctx, req, "/")
	if err != nil {
		return catalog.Listing{}, err
	}

	entries := extract.Entries(doc)
	models := make([]catalog.Model, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		models = append(models, catalog.Model{
			ID:        e.ID,
			Name:      e.Name,
			ImageURL:  e.ImageURL,
			Extension: catalog.ExtensionForCategory(e.Category, catalog.ExtSFM),
			Category:  e.Category,
			Tags:      e.Tags,
		})
	}

	listing := catalog.Listing{
		Models:     models,
		Categories: extract.Categories(doc.Find("#id_category option")),
		Licenses:   extract.Licenses(doc.Find("#id_license option")),
		TotalPages: extract.LastPage(doc.Find(".content-container .pagination")),
	}
	if len(models) > 0 && listing.TotalPages < 1 {
		listing.TotalPages = 1
	}
	if len(models) == 0 {
		listing.TotalPages = 0
	}

	span.SetAttributes(attribute.Int("models", len(models)))
	return listing, nil
}

func (c *Client) GetModel(ctx context.Context, id string) (catalog.ModelDetail, error) {
	ctx, span := tracer.Start(ctx, "client:GetModel")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return catalog.ModelDetail{}, catalog.ErrInvalidIdentifier
	}
	span.SetAttributes(attribute.String("id", id))

	doc, err := c.fetchDoc(ctx, c.http.R(), "/project/"+id)
	if err != nil {
		return catalog.ModelDetail{}, err
	}

	page := extract.DetailPage(doc)
	detail := catalog.ModelDetail{
		Model: catalog.Model{
			ID:        id,
			Name:      page.Name,
			ImageURL:  page.ImageURL,
			Extension: catalog.ExtensionForCategory(page.Category, catalog.ExtSFM),
			Category:  page.Category,
		},
		Description: page.Description,
		Images:      page.Images,
		SizeText:    page.SizeText,
		Comments:    extract.Comments(doc),
	}

	links, err := extract.ResolveLinks(ctx, c.fetchPage, extract.DownloadRows(doc))
	if err != nil {
		slog.WarnContext(
			ctx, "download link resolution aborted early",
			"source", c.Source(), "id", id, "resolved", len(links), "err", err,
		)
	}
	detail.DownloadLinks = links

	return detail, nil
}

func (c *Client) fetchPage(ctx context.Context, href string) (*goquery.Document, error) {
	return c.fetchDoc(ctx, c.http.R(), href)
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
