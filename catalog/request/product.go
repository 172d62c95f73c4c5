package request

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

const (
	SortName      = "name"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProductFilter struct {
	Category      string              `json:"category"`
	Purposes      []string            `json:"purposes"`
	Materials     []string            `json:"materials"`
	BodyParts     []string            `json:"body_parts"`
	MinPrice      decimal.NullDecimal `json:"min_price"      validate:"omitempty,money"`
	MaxPrice      decimal.NullDecimal `json:"max_price"      validate:"omitempty,money"`
	Query         string              `json:"q"              validate:"max=200"`
	AvailableOnly bool                `json:"available_only"`
	Sort          string              `json:"sort"           validate:"omitempty,oneof=name price_asc price_desc newest"`
	Page          int                 `json:"page"           validate:"gte=1"`
	PageSize      int                 `json:"page_size"      validate:"gte=1,lte=100"`
}

// list accepts both repeated keys and comma separated values.
func list(values url.Values, key string) []string {
	out := []string{}
	for _, raw := range values[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// ParseProductFilter reads a filter from query parameters. Unparsable numbers are reported
// as a ValidationError, range checks are left to the validator.
func ParseProductFilter(values url.Values) (ProductFilter, error) {
	filter := ProductFilter{
		Category:  strings.TrimSpace(values.Get("category")),
		Purposes:  list(values, "purposes"),
		Materials: list(values, "materials"),
		BodyParts: list(values, "body_parts"),
		Query:     strings.TrimSpace(values.Get("q")),
		Sort:      values.Get("sort"),
		Page:      1,
		PageSize:  DefaultPageSize,
	}
	fields := map[string]string{}

	for key, target := range map[string]*decimal.NullDecimal{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[key] = "enter a number"
			continue
		}
		*target = decimal.NewNullDecimal(d)
	}

	if raw := values.Get("available_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields["available_only"] = "enter true or false"
		}
		filter.AvailableOnly = v
	}

	for key, target := range map[string]*int{"page": &filter.Page, "page_size": &filter.PageSize} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields[key] = "enter a whole number"
			continue
		}
		*target = v
	}

	if len(fields) > 0 {
		return filter, inErrors.ValidationError{Fields: fields}
	}
	return filter, nil
}
