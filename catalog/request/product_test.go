package request

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestParseProductFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected ProductFilter
		wantErr  []string
	}{
		{
			name:  "defaults",
			query: "",
			expected: ProductFilter{
				Purposes:  []string{},
				Materials: []string{},
				BodyParts: []string{},
				Page:      1,
				PageSize:  DefaultPageSize,
			},
		},
		{
			name:  "lists accept repeated and comma separated values",
			query: "category=rings&purposes=gift,daily&purposes=wedding&materials=gold&body_parts=ear&min_price=10.50&max_price=99&q=band&available_only=true&sort=price_asc&page=2&page_size=50",
			expected: ProductFilter{
				Category:      "rings",
				Purposes:      []string{"gift", "daily", "wedding"},
				Materials:     []string{"gold"},
				BodyParts:     []string{"ear"},
				MinPrice:      decimal.NewNullDecimal(decimal.RequireFromString("10.50")),
				MaxPrice:      decimal.NewNullDecimal(decimal.RequireFromString("99")),
				Query:         "band",
				AvailableOnly: true,
				Sort:          SortPriceAsc,
				Page:          2,
				PageSize:      50,
			},
		},
		{
			name:    "unparsable numbers are field errors",
			query:   "min_price=abc&page=x&available_only=maybe",
			wantErr: []string{"min_price", "page", "available_only"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			actual, err := ParseProductFilter(values)
			if tt.wantErr != nil {
				var validationErr inErrors.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				for _, field := range tt.wantErr {
					assert.Contains(t, validationErr.Fields, field)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected.Category, actual.Category)
			assert.Equal(t, tt.expected.Purposes, actual.Purposes)
			assert.Equal(t, tt.expected.Materials, actual.Materials)
			assert.Equal(t, tt.expected.BodyParts, actual.BodyParts)
			assert.Equal(t, tt.expected.MinPrice.Valid, actual.MinPrice.Valid)
			assert.True(t, tt.expected.MinPrice.Decimal.Equal(actual.MinPrice.Decimal))
			assert.True(t, tt.expected.MaxPrice.Decimal.Equal(actual.MaxPrice.Decimal))
			assert.Equal(t, tt.expected.Query, actual.Query)
			assert.Equal(t, tt.expected.AvailableOnly, actual.AvailableOnly)
			assert.Equal(t, tt.expected.Sort, actual.Sort)
			assert.Equal(t, tt.expected.Page, actual.Page)
			assert.Equal(t, tt.expected.PageSize, actual.PageSize)
		})
	}
}
