package request

import "github.com/google/uuid"

type AddItem struct {
	ProductID uuid.UUID `validate:"required"                json:"product_id"`
	Quantity  *int32    `validate:"omitempty,min=1,max=999" json:"quantity"`
}

// Qty defaults to one when the client sends no quantity.
func (a AddItem) Qty() int32 {
	if a.Quantity == nil {
		return 1
	}
	return *a.Quantity
}

type UpdateItem struct {
	ProductID uuid.UUID `validate:"required"      json:"product_id"`
	Quantity  int32     `validate:"min=0,max=999" json:"quantity"`
}

type RemoveItem struct {
	ProductID uuid.UUID `validate:"required" json:"product_id"`
}

// UpdateCart replaces quantities of many lines at once. A zero quantity removes the line.
type UpdateCart struct {
	Items []UpdateItem `validate:"required,dive" json:"items"`
}
