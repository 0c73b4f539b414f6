package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvCardPayments = "STOREFRONT_FEATURE_CARD_PAYMENTS"

	EnvCheckoutSessionTTL  = "STOREFRONT_CHECKOUT_SESSION_TTL"
	EnvCheckoutStepTimeout = "STOREFRONT_CHECKOUT_STEP_TIMEOUT"
	EnvDeliveryExpressCost = "STOREFRONT_DELIVERY_EXPRESS_COST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
