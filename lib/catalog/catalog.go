// Package catalog holds the normalized domain model shared by every
// site adapter, along with the error taxonomy the facade maps to
// HTTP statuses.
package catalog

import (
	"context"
	"fmt"
)

type Category struct {
	ID int `json:"id"`
	// always -1, categories on the origin sites are flat
	ParentID int    `json:"parentId"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
}

type License struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
	Message   string `json:"message"`
	// epoch milliseconds, 0 when the origin timestamp could not be parsed
	PostedAt int64 `json:"date"`
}

type DownloadLink struct {
	URL      string `json:"link"`
	Filename string `json:"filename"`
	SizeText string `json:"size,omitempty"`
}

// Model is the summary form returned by listings. IDs are scoped to
// their source site and are not globally unique.
type Model struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"image"`
	Extension     string   `json:"extension"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags,omitempty"`
	MatureContent bool     `json:"mature_content"`
}

type ModelDetail struct {
	Model
	Description   string         `json:"description"`
	Images        []string       `json:"images"`
	SizeText      string         `json:"size"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
	Comments      []Comment      `json:"comments"`
}

type Listing struct {
	Models     []Model    `json:"models"`
	Categories []Category `json:"categories"`
	Licenses   []License  `json:"licenses"`
	TotalPages int        `json:"totalPages"`
}

// Query is the generic listing query. Facet values stay strings
// because sources disagree on their shape (numeric ids on the SFMLab
// family, slugs on Model Haven); "" and "-1" both mean unset, Page 0
// means unset. Adapters translate set fields into their origin site's
// own query-string vocabulary and omit unset ones from the outbound
// request entirely, some origins treat an explicit empty parameter
// differently from an absent one.
type Query struct {
	Category string
	License  string
	Search   string
	Order    string
	Page     int
}

// FacetSet reports whether a facet value should be forwarded to the
// origin site.
func FacetSet(value string) bool {
	return value != "" && value != "-1"
}

type Adapter interface {
	Source() string
	ListModels(ctx context.Context, q Query) (Listing, error)
	GetModel(ctx context.Context, id string) (ModelDetail, error)
}

var (
	// the outbound call to the origin site failed, callers decide
	// whether to retry
	ErrSourceUnavailable = fmt.Errorf("source site is unavailable")
	ErrInvalidIdentifier = fmt.Errorf("model id is required")
	// login could not establish a session, fatal for the source until
	// credentials or the flow are fixed
	ErrAuthenticationFailure = fmt.Errorf("failed to authenticate with the source site")
)
