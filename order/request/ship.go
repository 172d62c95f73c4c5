package request

type ShipOrder struct {
	OrderNumber       string `validate:"required,max=16"                json:"order_number"`
	TrackingNumber    string `validate:"required,max=100"               json:"tracking_number"`
	EstimatedDelivery string `validate:"omitempty,datetime=2006-01-02" json:"estimated_delivery"`
}
