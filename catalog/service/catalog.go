package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/catalog/internal/otel"
	"github.com/Alturino/storefront/catalog/request"
	"github.com/Alturino/storefront/catalog/response"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/validate"
)

const taxonomyTTL = time.Hour

type CatalogService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *redis.Client
}

func NewCatalogService(pool *pgxpool.Pool, queries *repository.Queries, cache *redis.Client) *CatalogService {
	return &CatalogService{pool: pool, queries: queries, cache: cache}
}

func (svc *CatalogService) ListProducts(
	c context.Context,
	filter request.ProductFilter,
) (response.ProductPage, error) {
	c, span := otel.Tracer.Start(c, "CatalogService ListProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService ListProducts").
		Any(log.KeyFilter, filter).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating filter").Logger()
	logger.Trace().Msg("validating filter")
	if err := validate.StructCtx(c, filter); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ProductPage{}, err
	}
	if filter.MinPrice.Valid && filter.MaxPrice.Valid &&
		filter.MinPrice.Decimal.GreaterThan(filter.MaxPrice.Decimal) {
		err := inErrors.NewValidationError("min_price", "must not be greater than max_price")
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ProductPage{}, err
	}
	sort := filter.Sort
	if sort == "" {
		sort = request.SortName
	}
	logger.Trace().Msg("validated filter")

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Trace().Msg("finding products")
	rows, err := svc.queries.FindProducts(c, repository.FindProductsParams{
		Category:      repository.PgText(filter.Category),
		Purposes:      filter.Purposes,
		Materials:     filter.Materials,
		BodyParts:     filter.BodyParts,
		MinPrice:      repository.NullNumericFromDecimal(filter.MinPrice),
		MaxPrice:      repository.NullNumericFromDecimal(filter.MaxPrice),
		Search:        filter.Query,
		AvailableOnly: filter.AvailableOnly,
		Sort:          sort,
		Limit:         int32(filter.PageSize),
		Offset:        int32((filter.Page - 1) * filter.PageSize),
	})
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ProductPage{}, err
	}

	page := response.ProductPage{
		Products: make([]response.Product, len(rows)),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	for i, row := range rows {
		page.Products[i] = response.ProductFromDetail(row.ProductDetailRow)
		page.TotalCount = row.TotalCount
	}
	page.TotalPages = int((page.TotalCount + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	logger.Debug().Int64("totalCount", page.TotalCount).Msg("found products")

	return page, nil
}

func (svc *CatalogService) FindProductBySlug(c context.Context, slug string) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "CatalogService FindProductBySlug")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService FindProductBySlug").
		Str(log.KeyProductSlug, slug).
		Str(log.KeyProcess, "finding product").
		Logger()

	logger.Trace().Msg("finding product")
	row, err := svc.queries.FindProductBySlug(c, slug)
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding product slug=%s with error=%w", slug, inErrors.ErrNotFound)
		} else {
			err = fmt.Errorf("failed finding product slug=%s with error=%w", slug, err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Trace().Msg("found product")

	logger = logger.With().Str(log.KeyProcess, "finding product images").Logger()
	images, err := svc.queries.FindProductImages(c, row.ID)
	if err != nil {
		err = fmt.Errorf("failed finding images of product slug=%s with error=%w", slug, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	product := response.ProductFromDetail(row)
	product.Images = make([]response.Image, len(images))
	for i, image := range images {
		product.Images[i] = response.ImageFromRow(image)
	}
	return product, nil
}

// AddProductImage stores an image of a product. Marking it primary or secondary takes the
// flag away from whichever image of the product held it.
func (svc *CatalogService) AddProductImage(c context.Context, param request.AddImage) (response.Image, error) {
	c, span := otel.Tracer.Start(c, "CatalogService AddProductImage")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService AddProductImage").
		Str(log.KeyProductID, param.ProductID.String()).
		Bool("isPrimary", param.IsPrimary).
		Bool("isSecondary", param.IsSecondary).
		Str(log.KeyProcess, "validating image").
		Logger()

	if err := validate.StructCtx(c, param); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Image{}, err
	}
	if param.IsPrimary {
		param.IsSecondary = false
	}

	logger = logger.With().Str(log.KeyProcess, "adding image").Logger()
	logger.Trace().Msg("adding image")
	var image repository.ProductImage
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		if _, err := q.FindProductByIdForUpdate(c, param.ProductID); err != nil {
			if repository.IsNoRows(err) {
				return fmt.Errorf("failed finding productId=%s with error=%w", param.ProductID, inErrors.ErrNotFound)
			}
			return fmt.Errorf("failed finding productId=%s with error=%w", param.ProductID, err)
		}
		if param.IsPrimary {
			if _, err := q.ClearPrimaryImage(c, param.ProductID); err != nil {
				return fmt.Errorf("failed clearing primary image with error=%w", err)
			}
		}
		if param.IsSecondary {
			if _, err := q.ClearSecondaryImage(c, param.ProductID); err != nil {
				return fmt.Errorf("failed clearing secondary image with error=%w", err)
			}
		}

		var err error
		image, err = q.InsertProductImage(c, repository.InsertProductImageParams{
			ProductID:   param.ProductID,
			Image:       param.Image,
			AltText:     param.AltText,
			IsPrimary:   param.IsPrimary,
			IsSecondary: param.IsSecondary,
			Position:    param.Position,
		})
		if err != nil {
			return fmt.Errorf("failed inserting product image with error=%w", err)
		}
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Image{}, err
	}
	logger.Info().Int64("imageId", image.ID).Msg("added image")

	return response.ImageFromRow(image), nil
}

// FindProductById returns the bare product row, with its live price and availability.
func (svc *CatalogService) FindProductById(c context.Context, id uuid.UUID) (repository.Product, error) {
	c, span := otel.Tracer.Start(c, "CatalogService FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService FindProductById").
		Str(log.KeyProductID, id.String()).
		Logger()

	product, err := svc.queries.FindProductById(c, id)
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding product id=%s with error=%w", id, inErrors.ErrNotFound)
		} else {
			err = fmt.Errorf("failed finding product id=%s with error=%w", id, err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Product{}, err
	}

	return product, nil
}

// Taxonomy is served from redis when present. Cache errors only cost a database read.
func (svc *CatalogService) Taxonomy(c context.Context) (response.Taxonomy, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Taxonomy")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService Taxonomy").
		Str(log.KeyCacheKey, constants.CacheKeyTaxonomy).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding taxonomy in cache").Logger()
	logger.Trace().Msg("finding taxonomy in cache")
	cached, err := svc.cache.Get(c, constants.CacheKeyTaxonomy).Bytes()
	switch {
	case err == nil:
		taxonomy := response.Taxonomy{}
		if err = json.Unmarshal(cached, &taxonomy); err == nil {
			logger.Trace().Msg("found taxonomy in cache")
			return taxonomy, nil
		}
		logger.Warn().Err(err).Msg("failed unmarshaling cached taxonomy")
	case errors.Is(err, redis.Nil):
		logger.Trace().Msg("taxonomy is not in cache")
	default:
		logger.Warn().Err(err).Msg("failed reading taxonomy from cache")
	}

	logger = logger.With().Str(log.KeyProcess, "finding taxonomy in database").Logger()
	logger.Trace().Msg("finding taxonomy in database")
	taxonomy, err := svc.loadTaxonomy(c)
	if err != nil {
		err = fmt.Errorf("failed finding taxonomy with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Taxonomy{}, err
	}
	logger.Trace().Msg("found taxonomy in database")

	logger = logger.With().Str(log.KeyProcess, "caching taxonomy").Logger()
	if encoded, err := json.Marshal(taxonomy); err == nil {
		if err = svc.cache.Set(c, constants.CacheKeyTaxonomy, encoded, taxonomyTTL).Err(); err != nil {
			logger.Warn().Err(err).Msg("failed caching taxonomy")
		}
	}

	return taxonomy, nil
}

// InvalidateTaxonomy drops the cached taxonomy after catalog writes.
func (svc *CatalogService) InvalidateTaxonomy(c context.Context) error {
	return svc.cache.Del(c, constants.CacheKeyTaxonomy).Err()
}

func (svc *CatalogService) loadTaxonomy(c context.Context) (response.Taxonomy, error) {
	categories, err := svc.queries.FindCategories(c)
	if err != nil {
		return response.Taxonomy{}, err
	}
	purposes, err := svc.queries.FindPurposes(c)
	if err != nil {
		return response.Taxonomy{}, err
	}
	materials, err := svc.queries.FindMaterials(c)
	if err != nil {
		return response.Taxonomy{}, err
	}
	bodyParts, err := svc.queries.FindBodyParts(c)
	if err != nil {
		return response.Taxonomy{}, err
	}

	taxonomy := response.Taxonomy{
		Categories: make([]response.Category, len(categories)),
		Purposes:   response.NamedSlugs(purposes),
		Materials:  response.NamedSlugs(materials),
		BodyParts:  response.NamedSlugs(bodyParts),
	}
	for i, category := range categories {
		taxonomy.Categories[i] = response.CategoryFromRow(category)
	}
	return taxonomy, nil
}
