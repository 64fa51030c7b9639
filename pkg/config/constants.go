package config

// EnvPrefix is the envconfig prefix shared by every LOGASHOP_* variable.
const EnvPrefix = "LOGASHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "LOGASHOP_APP_ENV"
	EnvPort         = "LOGASHOP_APP_PORT"
	EnvDBDSN        = "LOGASHOP_DB_DSN"
	EnvDBHost       = "LOGASHOP_DB_HOST"
	EnvDBUser       = "LOGASHOP_DB_USER"
	EnvDBName       = "LOGASHOP_DB_NAME"
	EnvRedisURL     = "LOGASHOP_REDIS_URL"
	EnvJWTSecret    = "LOGASHOP_JWT_SECRET"
	EnvJWTIssuer    = "LOGASHOP_JWT_ISSUER"
	EnvGCPProjectID = "LOGASHOP_GCP_PROJECT_ID"
)

// legacyDBEnvVars are the variables required to assemble a DSN when
// LOGASHOP_DB_DSN is not set directly.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
