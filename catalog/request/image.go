package request

import "github.com/google/uuid"

// AddImage attaches an image to a product. Primary wins when both flags are set.
type AddImage struct {
	ProductID   uuid.UUID `validate:"required"         json:"product_id"`
	Image       string    `validate:"required,max=255" json:"image"`
	AltText     string    `validate:"max=200"          json:"alt_text"`
	IsPrimary   bool      `                            json:"is_primary"`
	IsSecondary bool      `                            json:"is_secondary"`
	Position    int32     `validate:"gte=0"            json:"position"`
}
