// Package integrations is the REST facade over the site adapters.
// Every response is served from the response cache when possible;
// only successful origin fetches are cached.
package integrations

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sfmhub-backend/lib/cache"
	"sfmhub-backend/lib/catalog"

	"github.com/gin-gonic/gin"
)

const (
	DefaultListingTTL = time.Minute * 5
	DefaultDetailTTL  = time.Hour
)

type Options struct {
	Cache    *cache.Cache
	Adapters []catalog.Adapter
	// zero values mean the defaults above
	ListingTTL time.Duration
	DetailTTL  time.Duration
}

type Service struct {
	cache      *cache.Cache
	adapters   map[string]catalog.Adapter
	listingTTL time.Duration
	detailTTL  time.Duration
}

func NewService(opts Options) *Service {
	if opts.ListingTTL == 0 {
		opts.ListingTTL = DefaultListingTTL
	}
	if opts.DetailTTL == 0 {
		opts.DetailTTL = DefaultDetailTTL
	}

	adapters := make(map[string]catalog.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		adapters[a.Source()] = a
	}

	return &Service{
		cache:      opts.Cache,
		adapters:   adapters,
		listingTTL: opts.ListingTTL,
		detailTTL:  opts.DetailTTL,
	}
}

func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	for source := range s.adapters {
		grp := rg.Group("/" + source)
		grp.GET("/models", s.listModels(source))
		grp.GET("/models/:id", s.getModel(source))
	}
}

func (s *Service) listModels(source string) gin.HandlerFunc {
	adapter := s.adapters[source]

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		query := catalog.Query{
			Category: c.Query("category"),
			License:  c.Query("license"),
			Search:   c.Query("search"),
			Order:    c.Query("order"),
		}
		if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
			query.Page = page
		}

		params := url.Values{}
		if catalog.FacetSet(query.Category) {
			params.Set("category", query.Category)
		}
		if catalog.FacetSet(query.License) {
			params.Set("license", query.License)
		}
		if query.Search != "" {
			params.Set("search", query.Search)
		}
		if query.Order != "" {
			params.Set("order", query.Order)
		}
		if query.Page > 0 {
			params.Set("page", strconv.Itoa(query.Page))
		}

		key := cache.Key(source, "models", params)
		if listing, err := cache.Get[catalog.Listing](ctx, s.cache, key); err == nil {
			c.JSON(http.StatusOK, listing)
			return
		}

		listing, err := adapter.ListModels(ctx, query)
		if err != nil {
			writeError(c, source, err)
			return
		}

		if err := cache.Set(ctx, s.cache, key, listing, s.listingTTL); err != nil {
			slog.WarnContext(ctx, "failed to cache listing", "source", source, "err", err)
		}
		c.JSON(http.StatusOK, listing)
	}
}

func (s *Service) getModel(source string) gin.HandlerFunc {
	adapter := s.adapters[source]

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		key := cache.Key(source, "model", url.Values{"id": {id}})
		if detail, err := cache.Get[catalog.ModelDetail](ctx, s.cache, key); err == nil {
			c.JSON(http.StatusOK, detail)
			return
		}

		detail, err := adapter.GetModel(ctx, id)
		if err != nil {
			writeError(c, source, err)
			return
		}

		if err := cache.Set(ctx, s.cache, key, detail, s.detailTTL); err != nil {
			slog.WarnContext(ctx, "failed to cache model", "source", source, "id", id, "err", err)
		}
		c.JSON(http.StatusOK, detail)
	}
}

func writeError(c *gin.Context, source string, err error) {
	slog.WarnContext(c.Request.Context(), "adapter request failed", "source", source, "err", err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrInvalidIdentifier):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrSourceUnavailable),
		errors.Is(err, catalog.ErrAuthenticationFailure):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// CORS allows read-only cross-origin access; the API is GET-only.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
