package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `p.id, p.category_id, p.material_id, p.name, p.slug, p.description, p.price, p.is_available, p.stock, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.MaterialID,
		&i.Name,
		&i.Slug,
		&i.Description,
		&i.Price,
		&i.IsAvailable,
		&i.Stock,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertCategory = `-- name: InsertCategory :one
INSERT INTO categories (parent_id, name, slug) VALUES ($1, $2, $3)
RETURNING id, parent_id, name, slug`

type InsertCategoryParams struct {
	ParentID pgtype.Int4 `json:"parent_id"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
}

func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, insertCategory, arg.ParentID, arg.Name, arg.Slug)
	var i Category
	err := row.Scan(&i.ID, &i.ParentID, &i.Name, &i.Slug)
	return i, err
}

const insertPurpose = `-- name: InsertPurpose :one
INSERT INTO purposes (name, slug) VALUES ($1, $2) RETURNING id, name, slug`

func (q *Queries) InsertPurpose(ctx context.Context, name, slug string) (Purpose, error) {
	row := q.db.QueryRow(ctx, insertPurpose, name, slug)
	var i Purpose
	err := row.Scan(&i.ID, &i.Name, &i.Slug)
	return i, err
}

const insertMaterial = `-- name: InsertMaterial :one
INSERT INTO materials (name, slug) VALUES ($1, $2) RETURNING id, name, slug`

func (q *Queries) InsertMaterial(ctx context.Context, name, slug string) (Material, error) {
	row := q.db.QueryRow(ctx, insertMaterial, name, slug)
	var i Material
	err := row.Scan(&i.ID, &i.Name, &i.Slug)
	return i, err
}

const insertBodyPart = `-- name: InsertBodyPart :one
INSERT INTO body_parts (name, slug) VALUES ($1, $2) RETURNING id, name, slug`

func (q *Queries) InsertBodyPart(ctx context.Context, name, slug string) (BodyPart, error) {
	row := q.db.QueryRow(ctx, insertBodyPart, name, slug)
	var i BodyPart
	err := row.Scan(&i.ID, &i.Name, &i.Slug)
	return i, err
}

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products AS p (category_id, material_id, name, slug, description, price, is_available, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + productColumns

type InsertProductParams struct {
	CategoryID  int32          `json:"category_id"`
	MaterialID  pgtype.Int4    `json:"material_id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	IsAvailable bool           `json:"is_available"`
	Stock       int32          `json:"stock"`
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, insertProduct,
		arg.CategoryID,
		arg.MaterialID,
		arg.Name,
		arg.Slug,
		arg.Description,
		arg.Price,
		arg.IsAvailable,
		arg.Stock,
	)
	return scanProduct(row)
}

const attachProductPurpose = `-- name: AttachProductPurpose :exec
INSERT INTO product_purposes (product_id, purpose_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

func (q *Queries) AttachProductPurpose(ctx context.Context, productID uuid.UUID, purposeID int32) error {
	_, err := q.db.Exec(ctx, attachProductPurpose, productID, purposeID)
	return err
}

const attachProductBodyPart = `-- name: AttachProductBodyPart :exec
INSERT INTO product_body_parts (product_id, body_part_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

func (q *Queries) AttachProductBodyPart(ctx context.Context, productID uuid.UUID, bodyPartID int32) error {
	_, err := q.db.Exec(ctx, attachProductBodyPart, productID, bodyPartID)
	return err
}

const updateProductPrice = `-- name: UpdateProductPrice :exec
UPDATE products SET price = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateProductPrice(ctx context.Context, id uuid.UUID, price pgtype.Numeric) error {
	_, err := q.db.Exec(ctx, updateProductPrice, id, price)
	return err
}

const findProductById = `-- name: FindProductById :one
SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

func (q *Queries) FindProductById(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, findProductById, id)
	return scanProduct(row)
}

const findProductByIdForUpdate = `-- name: FindProductByIdForUpdate :one
SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 FOR UPDATE`

// FindProductByIdForUpdate serializes writers of the images of one product.
func (q *Queries) FindProductByIdForUpdate(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, findProductByIdForUpdate, id)
	return scanProduct(row)
}

const productDetailColumns = productColumns + `,
    c.name AS category_name,
    c.slug AS category_slug,
    COALESCE(m.name, '') AS material_name,
    COALESCE(m.slug, '') AS material_slug,
    ARRAY(
        SELECT pu.slug FROM product_purposes pp
        JOIN purposes pu ON pu.id = pp.purpose_id
        WHERE pp.product_id = p.id ORDER BY pu.slug
    )::text[] AS purpose_slugs,
    ARRAY(
        SELECT bp.slug FROM product_body_parts pb
        JOIN body_parts bp ON bp.id = pb.body_part_id
        WHERE pb.product_id = p.id ORDER BY bp.slug
    )::text[] AS body_part_slugs,
    COALESCE((SELECT pi.image FROM product_images pi WHERE pi.product_id = p.id AND pi.is_primary), '') AS primary_image,
    COALESCE((SELECT pi.alt_text FROM product_images pi WHERE pi.product_id = p.id AND pi.is_primary), '') AS primary_image_alt,
    COALESCE((SELECT pi.image FROM product_images pi WHERE pi.product_id = p.id AND pi.is_secondary), '') AS secondary_image,
    COALESCE((SELECT pi.alt_text FROM product_images pi WHERE pi.product_id = p.id AND pi.is_secondary), '') AS secondary_image_alt`

type ProductDetailRow struct {
	Product
	CategoryName      string   `json:"category_name"`
	CategorySlug      string   `json:"category_slug"`
	MaterialName      string   `json:"material_name"`
	MaterialSlug      string   `json:"material_slug"`
	PurposeSlugs      []string `json:"purpose_slugs"`
	BodyPartSlugs     []string `json:"body_part_slugs"`
	PrimaryImage      string   `json:"primary_image"`
	PrimaryImageAlt   string   `json:"primary_image_alt"`
	SecondaryImage    string   `json:"secondary_image"`
	SecondaryImageAlt string   `json:"secondary_image_alt"`
}

func (i *ProductDetailRow) scanTargets() []interface{} {
	return []interface{}{
		&i.ID,
		&i.CategoryID,
		&i.MaterialID,
		&i.Name,
		&i.Slug,
		&i.Description,
		&i.Price,
		&i.IsAvailable,
		&i.Stock,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CategoryName,
		&i.CategorySlug,
		&i.MaterialName,
		&i.MaterialSlug,
		&i.PurposeSlugs,
		&i.BodyPartSlugs,
		&i.PrimaryImage,
		&i.PrimaryImageAlt,
		&i.SecondaryImage,
		&i.SecondaryImageAlt,
	}
}

const findProductBySlug = `-- name: FindProductBySlug :one
SELECT ` + productDetailColumns + `
FROM products p
JOIN categories c ON c.id = p.category_id
LEFT JOIN materials m ON m.id = p.material_id
WHERE p.slug = $1`

func (q *Queries) FindProductBySlug(ctx context.Context, slug string) (ProductDetailRow, error) {
	row := q.db.QueryRow(ctx, findProductBySlug, slug)
	var i ProductDetailRow
	err := row.Scan(i.scanTargets()...)
	return i, err
}

const findProducts = `-- name: FindProducts :many
SELECT ` + productDetailColumns + `,
    count(*) OVER () AS total_count
FROM products p
JOIN categories c ON c.id = p.category_id
LEFT JOIN materials m ON m.id = p.material_id
LEFT JOIN categories pc ON pc.id = c.parent_id
WHERE ($1::text IS NULL OR c.slug = $1::text OR pc.slug = $1::text)
  AND (
    COALESCE(cardinality($2::text[]), 0) = 0
    OR EXISTS (
        SELECT 1 FROM product_purposes pp
        JOIN purposes pu ON pu.id = pp.purpose_id
        WHERE pp.product_id = p.id AND pu.slug = ANY($2::text[])
    )
  )
  AND (COALESCE(cardinality($3::text[]), 0) = 0 OR m.slug = ANY($3::text[]))
  AND (
    COALESCE(cardinality($4::text[]), 0) = 0
    OR EXISTS (
        SELECT 1 FROM product_body_parts pb
        JOIN body_parts bp ON bp.id = pb.body_part_id
        WHERE pb.product_id = p.id AND bp.slug = ANY($4::text[])
    )
  )
  AND ($5::numeric IS NULL OR p.price >= $5::numeric)
  AND ($6::numeric IS NULL OR p.price <= $6::numeric)
  AND (
    $7::text = ''
    OR p.name ILIKE '%' || $7::text || '%'
    OR p.description ILIKE '%' || $7::text || '%'
  )
  AND (NOT $8::boolean OR p.is_available)
ORDER BY
    CASE WHEN $9::text = 'price_asc' THEN p.price END ASC,
    CASE WHEN $9::text = 'price_desc' THEN p.price END DESC,
    CASE WHEN $9::text = 'newest' THEN p.created_at END DESC,
    p.name ASC,
    p.id ASC
LIMIT $10 OFFSET $11`

type FindProductsParams struct {
	Category      pgtype.Text    `json:"category"`
	Purposes      []string       `json:"purposes"`
	Materials     []string       `json:"materials"`
	BodyParts     []string       `json:"body_parts"`
	MinPrice      pgtype.Numeric `json:"min_price"`
	MaxPrice      pgtype.Numeric `json:"max_price"`
	Search        string         `json:"search"`
	AvailableOnly bool           `json:"available_only"`
	Sort          string         `json:"sort"`
	Limit         int32          `json:"limit"`
	Offset        int32          `json:"offset"`
}

type FindProductsRow struct {
	ProductDetailRow
	TotalCount int64 `json:"total_count"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (q *Queries) FindProducts(ctx context.Context, arg FindProductsParams) ([]FindProductsRow, error) {
	rows, err := q.db.Query(ctx, findProducts,
		arg.Category,
		nonNil(arg.Purposes),
		nonNil(arg.Materials),
		nonNil(arg.BodyParts),
		arg.MinPrice,
		arg.MaxPrice,
		arg.Search,
		arg.AvailableOnly,
		arg.Sort,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindProductsRow{}
	for rows.Next() {
		var i FindProductsRow
		if err := rows.Scan(append(i.scanTargets(), &i.TotalCount)...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findCategories = `-- name: FindCategories :many
SELECT id, parent_id, name, slug FROM categories ORDER BY name`

func (q *Queries) FindCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, findCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.ParentID, &i.Name, &i.Slug); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type NamedSlug struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

const findPurposes = `-- name: FindPurposes :many
SELECT id, name, slug FROM purposes ORDER BY name`

const findMaterials = `-- name: FindMaterials :many
SELECT id, name, slug FROM materials ORDER BY name`

const findBodyParts = `-- name: FindBodyParts :many
SELECT id, name, slug FROM body_parts ORDER BY name`

func (q *Queries) findNamedSlugs(ctx context.Context, query string) ([]NamedSlug, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []NamedSlug{}
	for rows.Next() {
		var i NamedSlug
		if err := rows.Scan(&i.ID, &i.Name, &i.Slug); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) FindPurposes(ctx context.Context) ([]NamedSlug, error) {
	return q.findNamedSlugs(ctx, findPurposes)
}

func (q *Queries) FindMaterials(ctx context.Context) ([]NamedSlug, error) {
	return q.findNamedSlugs(ctx, findMaterials)
}

func (q *Queries) FindBodyParts(ctx context.Context) ([]NamedSlug, error) {
	return q.findNamedSlugs(ctx, findBodyParts)
}
