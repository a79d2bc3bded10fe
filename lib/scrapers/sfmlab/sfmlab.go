package sfmlab

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/extract"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// ListModels issues one GET of the site index with the query
// translated into SFMLab's own parameter vocabulary. Unset fields are
// omitted from the request entirely.
func (c *Client) ListModels(ctx context.Context, q catalog.Query) (catalog.Listing, error) {
	ctx, span := tracer.Start(ctx, "client:ListModels")
	defer span.End()

	cookies, err := c.session.Ensure(ctx)
	if err != nil {
		return catalog.Listing{}, err
	}

	req := c.http.R().SetCookies(cookies)
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
			Extension: catalog.ExtSFM,
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

// GetModel fetches the detail page plus the separate comments
// endpoint for one model and merges both into one record. Download
// links resolve sequentially through their intermediate pages; a
// mid-sequence failure degrades to the links collected so far.
func (c *Client) GetModel(ctx context.Context, id string) (catalog.ModelDetail, error) {
	ctx, span := tracer.Start(ctx, "client:GetModel")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return catalog.ModelDetail{}, catalog.ErrInvalidIdentifier
	}
	span.SetAttributes(attribute.String("id", id))

	cookies, err := c.session.Ensure(ctx)
	if err != nil {
		return catalog.ModelDetail{}, err
	}

	doc, err := c.fetchDoc(ctx, c.http.R().SetCookies(cookies), "/project/"+id)
	if err != nil {
		return catalog.ModelDetail{}, err
	}

	page := extract.DetailPage(doc)
	detail := catalog.ModelDetail{
		Model: catalog.Model{
			ID:        id,
			Name:      page.Name,
			ImageURL:  page.ImageURL,
			Extension: catalog.ExtSFM,
			Category:  page.Category,
		},
		Description: page.Description,
		Images:      page.Images,
		SizeText:    page.SizeText,
	}

	links, err := extract.ResolveLinks(ctx, c.fetchPage(cookies), extract.DownloadRows(doc))
	if err != nil {
		slog.WarnContext(
			ctx, "download link resolution aborted early",
			"source", c.Source(), "id", id, "resolved", len(links), "err", err,
		)
	}
	detail.DownloadLinks = links

	// comments live on their own endpoint; they are best-effort
	// metadata and never fail the whole lookup
	commentsDoc, err := c.fetchDoc(ctx, c.http.R().SetCookies(cookies), "/project/"+id+"/comments")
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch comments", "source", c.Source(), "id", id, "err", err)
		detail.Comments = []catalog.Comment{}
	} else {
		detail.Comments = extract.CommentElements(commentsDoc, c.baseURL)
	}

	return detail, nil
}

// fetchPage binds the session snapshot into a fetcher for the
// intermediate download pages.
func (c *Client) fetchPage(cookies []*http.Cookie) extract.PageFetcher {
	return func(ctx context.Context, href string) (*goquery.Document, error) {
		return c.fetchDoc(ctx, c.http.R().SetCookies(cookies), href)
	}
}
