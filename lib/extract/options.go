// Package extract holds the reusable extraction primitives that pull
// typed values out of parsed origin-site markup. Origin markup is
// adversarially inconsistent, so primitives never fail on a missing
// node: they substitute an empty string or sentinel value instead.
package extract

import (
	"strconv"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// the "no selection" marker the origins render as the first option
const placeholderOption = "---------"

// Categories maps the entries of a category <select> element onto
// catalog categories, skipping the placeholder option. The origins
// only have flat, single-level categories, so ParentID is always -1.
func Categories(options *goquery.Selection) []catalog.Category {
	categories := []catalog.Category{}

	options.Each(func(_ int, opt *goquery.Selection) {
		name := htmlutil.CleanText(opt.Text())
		if name == placeholderOption {
			return
		}
		value := opt.AttrOr("value", "")
		id, _ := strconv.Atoi(value)

		categories = append(categories, catalog.Category{
			ID:       id,
			ParentID: -1,
			Slug:     value,
			Name:     name,
		})
	})

	return categories
}

// Licenses maps the entries of a license <select> element onto
// catalog licenses, skipping the placeholder option.
func Licenses(options *goquery.Selection) []catalog.License {
	licenses := []catalog.License{}

	options.Each(func(_ int, opt *goquery.Selection) {
		name := htmlutil.CleanText(opt.Text())
		if name == placeholderOption {
			return
		}
		id, _ := strconv.Atoi(opt.AttrOr("value", ""))

		licenses = append(licenses, catalog.License{
			ID:   id,
			Name: name,
		})
	})

	return licenses
}
