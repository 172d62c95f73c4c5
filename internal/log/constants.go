package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyPathValues         = "pathValues"
	KeyQueryValues        = "queryValues"
	KeyEmail              = "email"
	KeyUserID             = "userId"
	KeyPrincipal          = "principal"
	KeySessionToken       = "sessionToken"
	KeyCacheKey           = "cacheKey"
	KeyCacheAddr          = "cacheAddr"
	KeyCart               = "cart"
	KeyCartID             = "cartId"
	KeyAnonymousCartID    = "anonymousCartId"
	KeyCartCreated        = "cartCreated"
	KeyCartItem           = "cartItem"
	KeyCartItems          = "cartItems"
	KeyProductID          = "productId"
	KeyProductSlug        = "productSlug"
	KeyQuantity           = "quantity"
	KeyFilter             = "filter"
	KeyOrder              = "order"
	KeyOrderID            = "orderId"
	KeyOrderNumber        = "orderNumber"
	KeyOrderItems         = "orderItems"
	KeyTotalPrice         = "totalPrice"
	KeyCheckoutStep       = "checkoutStep"
	KeyAddress            = "address"
	KeyAddressID          = "addressId"
	KeyAddressType        = "addressType"
	KeyPaymentIntentID    = "paymentIntentId"
	KeyPaymentAmount      = "paymentAmount"
	KeyCurrency           = "currency"
	KeyStatusCode         = "statusCode"
	KeyDbURL              = "dbUrl"
	KeyMigrationDirection = "migrationDirection"
	KeyChannel            = "channel"
	KeyPayload            = "payload"
	KeyWorker             = "worker"
	KeyWorkers            = "workers"
	KeyPaidAt             = "paidAt"
)
