// Package sfmlab scrapes sfmlab.com, the one origin that gates
// content behind a login. All outbound requests ride the session
// cookie set maintained by Session.
package sfmlab

import (
	"bytes"
	"context"
	"fmt"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("sfmhub.scrapers.sfmlab")

const DefaultBaseURL = "https://sfmlab.com"

type ClientOptions struct {
	// defaults to DefaultBaseURL, overridable for tests
	BaseURL    string
	Login      string
	Password   string
	Instrument restyutil.InstrumentOutput
}

type Client struct {
	baseURL string
	http    *resty.Client
	session *Session
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

	session, err := NewSession(opts.BaseURL, opts.Login, opts.Password)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		session: session,
	}, nil
}

func (c *Client) Source() string {
	return "sfmlab"
}

// fetchDoc issues one authenticated GET and parses the response body.
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
