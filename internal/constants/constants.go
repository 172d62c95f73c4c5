package constants

const (
	AppStorefront          = "storefront"
	AppCatalogService      = "catalog-service"
	AppCartService         = "cart-service"
	AppOrderService        = "order-service"
	AppCheckoutService     = "checkout-service"
	AppUserService         = "user-service"
	AppPaymentProcessor    = "payment-processor"
	AppNotificationService = "notification-service"
	AudienceUser           = "audience-user"
)

const (
	SessionKeyCartID  = "cart_id"
	SessionKeyOrderID = "order_id"
)

const (
	ChannelOrderPaid = "orders.paid"
)

const (
	CacheKeySession  = "session:%s"
	CacheKeyTaxonomy = "catalog:taxonomy"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusReturned   = "RETURNED"
	OrderStatusRefunded   = "REFUNDED"
	OrderStatusCompleted  = "COMPLETED"
)

const (
	AddressTypeShipping = "SHIPPING"
	AddressTypeBilling  = "BILLING"
)

const (
	CheckoutStepNone     = "NONE"
	CheckoutStepContact  = "CONTACT"
	CheckoutStepShipping = "SHIPPING"
	CheckoutStepBilling  = "BILLING"
	CheckoutStepPayment  = "PAYMENT"
	CheckoutStepComplete = "COMPLETE"
)

const OrderNumberFormat = "%06d"

// MaxItemQuantity caps one cart line and keeps summed quantities inside INTEGER.
const MaxItemQuantity = 999
