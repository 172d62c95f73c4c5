package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/repository"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
	Stock       int32           `json:"stock"`
	Category    NamedSlug       `json:"category"`
	Material    *NamedSlug      `json:"material,omitempty"`
	Purposes    []string        `json:"purposes"`
	BodyParts   []string        `json:"body_parts"`
	// PrimaryImage and SecondaryImage are the main and hover images of a listing.
	PrimaryImage   *Image    `json:"primary_image,omitempty"`
	SecondaryImage *Image    `json:"secondary_image,omitempty"`
	Images         []Image   `json:"images,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Image struct {
	ID          int64  `json:"id,omitempty"`
	Image       string `json:"image"`
	AltText     string `json:"alt_text"`
	IsPrimary   bool   `json:"is_primary"`
	IsSecondary bool   `json:"is_secondary"`
	Position    int32  `json:"position"`
}

func ImageFromRow(row repository.ProductImage) Image {
	return Image{
		ID:          row.ID,
		Image:       row.Image,
		AltText:     row.AltText,
		IsPrimary:   row.IsPrimary,
		IsSecondary: row.IsSecondary,
		Position:    row.Position,
	}
}

type ProductPage struct {
	Products   []Product `json:"products"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

type NamedSlug struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Category struct {
	ID       int32  `json:"id"`
	ParentID *int32 `json:"parent_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
}

type Taxonomy struct {
	Categories []Category  `json:"categories"`
	Purposes   []NamedSlug `json:"purposes"`
	Materials  []NamedSlug `json:"materials"`
	BodyParts  []NamedSlug `json:"body_parts"`
}

func ProductFromDetail(row repository.ProductDetailRow) Product {
	p := Product{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
		Price:       repository.DecimalFromNumeric(row.Price),
		IsAvailable: row.IsAvailable,
		Stock:       row.Stock,
		Category:    NamedSlug{Name: row.CategoryName, Slug: row.CategorySlug},
		Purposes:    row.PurposeSlugs,
		BodyParts:   row.BodyPartSlugs,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	if row.MaterialSlug != "" {
		p.Material = &NamedSlug{Name: row.MaterialName, Slug: row.MaterialSlug}
	}
	if row.PrimaryImage != "" {
		p.PrimaryImage = &Image{Image: row.PrimaryImage, AltText: row.PrimaryImageAlt, IsPrimary: true}
	}
	if row.SecondaryImage != "" {
		p.SecondaryImage = &Image{Image: row.SecondaryImage, AltText: row.SecondaryImageAlt, IsSecondary: true}
	}
	if p.Purposes == nil {
		p.Purposes = []string{}
	}
	if p.BodyParts == nil {
		p.BodyParts = []string{}
	}
	return p
}

func CategoryFromRow(row repository.Category) Category {
	c := Category{ID: row.ID, Name: row.Name, Slug: row.Slug}
	if row.ParentID.Valid {
		parent := row.ParentID.Int32
		c.ParentID = &parent
	}
	return c
}

func NamedSlugs(rows []repository.NamedSlug) []NamedSlug {
	out := make([]NamedSlug, len(rows))
	for i, row := range rows {
		out[i] = NamedSlug{Name: row.Name, Slug: row.Slug}
	}
	return out
}
