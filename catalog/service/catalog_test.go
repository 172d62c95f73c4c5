package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/catalog/request"
	"github.com/Alturino/storefront/catalog/response"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/testutil"
)

func slugs(products []response.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Slug
	}
	return out
}

func filter(f func(*request.ProductFilter)) request.ProductFilter {
	base := request.ProductFilter{Page: 1, PageSize: request.DefaultPageSize}
	if f != nil {
		f(&base)
	}
	return base
}

func TestCatalogService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := testutil.Context()
	env := testutil.Setup(t, c)
	q := env.Queries

	jewelry := testutil.SeedCategory(t, c, q, 0, "jewelry")
	rings := testutil.SeedCategory(t, c, q, jewelry.ID, "rings")
	necklaces := testutil.SeedCategory(t, c, q, 0, "necklaces")
	gold, err := q.InsertMaterial(c, "Gold", "gold")
	require.NoError(t, err)
	gift, err := q.InsertPurpose(c, "Gift", "gift")
	require.NoError(t, err)
	neck, err := q.InsertBodyPart(c, "Neck", "neck")
	require.NoError(t, err)

	testutil.SeedProduct(t, c, q, testutil.ProductSeed{CategoryID: rings.ID, MaterialID: gold.ID, Slug: "gold-band", Price: "10.00"})
	testutil.SeedProduct(t, c, q, testutil.ProductSeed{CategoryID: rings.ID, Slug: "silver-band", Price: "30.00", Unavailable: true})
	chain := testutil.SeedProduct(t, c, q, testutil.ProductSeed{CategoryID: necklaces.ID, Slug: "chain", Price: "20.00"})
	require.NoError(t, q.AttachProductPurpose(c, chain.ID, gift.ID))
	require.NoError(t, q.AttachProductBodyPart(c, chain.ID, neck.ID))

	svc := NewCatalogService(env.Pool, q, env.Cache)

	tests := []struct {
		name     string
		filter   request.ProductFilter
		expected []string
		total    int64
		wantErr  error
	}{
		{
			name:     "default sort is by name",
			filter:   filter(nil),
			expected: []string{"chain", "gold-band", "silver-band"},
			total:    3,
		},
		{
			name:     "parent category matches children",
			filter:   filter(func(f *request.ProductFilter) { f.Category = "jewelry" }),
			expected: []string{"gold-band", "silver-band"},
			total:    2,
		},
		{
			name:     "material filter",
			filter:   filter(func(f *request.ProductFilter) { f.Materials = []string{"gold"} }),
			expected: []string{"gold-band"},
			total:    1,
		},
		{
			name: "purpose and body part filters",
			filter: filter(func(f *request.ProductFilter) {
				f.Purposes = []string{"gift"}
				f.BodyParts = []string{"neck"}
			}),
			expected: []string{"chain"},
			total:    1,
		},
		{
			name: "price range",
			filter: filter(func(f *request.ProductFilter) {
				f.MinPrice = decimal.NewNullDecimal(decimal.RequireFromString("15"))
				f.MaxPrice = decimal.NewNullDecimal(decimal.RequireFromString("30"))
			}),
			expected: []string{"chain", "silver-band"},
			total:    2,
		},
		{
			name:     "available only and price descending",
			filter:   filter(func(f *request.ProductFilter) { f.AvailableOnly = true; f.Sort = request.SortPriceDesc }),
			expected: []string{"chain", "gold-band"},
			total:    2,
		},
		{
			name:     "case insensitive search",
			filter:   filter(func(f *request.ProductFilter) { f.Query = "BAND" }),
			expected: []string{"gold-band", "silver-band"},
			total:    2,
		},
		{
			name:     "pagination keeps the total count",
			filter:   filter(func(f *request.ProductFilter) { f.Sort = request.SortPriceAsc; f.Page = 2; f.PageSize = 2 }),
			expected: []string{"silver-band"},
			total:    3,
		},
		{
			name:    "page size above limit is rejected",
			filter:  filter(func(f *request.ProductFilter) { f.PageSize = 101 }),
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "min above max is rejected",
			filter: filter(func(f *request.ProductFilter) {
				f.MinPrice = decimal.NewNullDecimal(decimal.RequireFromString("30"))
				f.MaxPrice = decimal.NewNullDecimal(decimal.RequireFromString("10"))
			}),
			wantErr: inErrors.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListProducts(c, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, slugs(page.Products))
			assert.Equal(t, tt.total, page.TotalCount)
		})
	}

	t.Run("find by slug", func(t *testing.T) {
		product, err := svc.FindProductBySlug(c, "gold-band")
		require.NoError(t, err)
		assert.Equal(t, "rings", product.Category.Slug)
		require.NotNil(t, product.Material)
		assert.Equal(t, "gold", product.Material.Slug)
		assert.True(t, decimal.RequireFromString("10").Equal(product.Price))

		_, err = svc.FindProductBySlug(c, "missing")
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("find by id", func(t *testing.T) {
		product, err := svc.FindProductById(c, chain.ID)
		require.NoError(t, err)
		assert.Equal(t, "chain", product.Slug)

		_, err = svc.FindProductById(c, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("images keep one primary and one secondary", func(t *testing.T) {
		add := func(image request.AddImage) response.Image {
			t.Helper()
			image.ProductID = chain.ID
			added, err := svc.AddProductImage(c, image)
			require.NoError(t, err)
			return added
		}
		add(request.AddImage{Image: "products/chain-front.jpg", AltText: "front", IsPrimary: true, Position: 1})
		add(request.AddImage{Image: "products/chain-side.jpg", IsSecondary: true, Position: 2})
		add(request.AddImage{Image: "products/chain-detail.jpg", Position: 0})
		replaced := add(request.AddImage{Image: "products/chain-worn.jpg", AltText: "worn", IsPrimary: true, IsSecondary: true, Position: 3})
		assert.True(t, replaced.IsPrimary)
		assert.False(t, replaced.IsSecondary)

		product, err := svc.FindProductBySlug(c, "chain")
		require.NoError(t, err)
		require.NotNil(t, product.PrimaryImage)
		assert.Equal(t, "products/chain-worn.jpg", product.PrimaryImage.Image)
		assert.Equal(t, "worn", product.PrimaryImage.AltText)
		require.NotNil(t, product.SecondaryImage)
		assert.Equal(t, "products/chain-side.jpg", product.SecondaryImage.Image)

		ordered := make([]string, len(product.Images))
		primaries := 0
		for i, image := range product.Images {
			ordered[i] = image.Image
			if image.IsPrimary {
				primaries++
			}
		}
		assert.Equal(t, []string{
			"products/chain-detail.jpg",
			"products/chain-front.jpg",
			"products/chain-side.jpg",
			"products/chain-worn.jpg",
		}, ordered)
		assert.Equal(t, 1, primaries)

		page, err := svc.ListProducts(c, filter(func(f *request.ProductFilter) { f.Query = "chain" }))
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		require.NotNil(t, page.Products[0].PrimaryImage)
		assert.Equal(t, "products/chain-worn.jpg", page.Products[0].PrimaryImage.Image)
		assert.Empty(t, page.Products[0].Images)
	})

	t.Run("image of an unknown product", func(t *testing.T) {
		_, err := svc.AddProductImage(c, request.AddImage{ProductID: uuid.New(), Image: "products/none.jpg"})
		assert.ErrorIs(t, err, inErrors.ErrNotFound)

		_, err = svc.AddProductImage(c, request.AddImage{ProductID: chain.ID})
		assert.ErrorIs(t, err, inErrors.ErrValidation)
	})

	t.Run("product without images", func(t *testing.T) {
		product, err := svc.FindProductBySlug(c, "gold-band")
		require.NoError(t, err)
		assert.Nil(t, product.PrimaryImage)
		assert.Nil(t, product.SecondaryImage)
		assert.Empty(t, product.Images)
	})

	t.Run("taxonomy is cached", func(t *testing.T) {
		require.NoError(t, svc.InvalidateTaxonomy(c))

		taxonomy, err := svc.Taxonomy(c)
		require.NoError(t, err)
		assert.Len(t, taxonomy.Categories, 3)
		assert.Equal(t, []response.NamedSlug{{Name: "Gold", Slug: "gold"}}, taxonomy.Materials)

		exists, err := env.Cache.Exists(c, constants.CacheKeyTaxonomy).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		cached, err := svc.Taxonomy(c)
		require.NoError(t, err)
		assert.Equal(t, taxonomy, cached)
	})
}
