package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "MOUNTEMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "MOUNTEMART_APP_ENV"
	EnvDBDSN  = "MOUNTEMART_DB_DSN"
	EnvDBHost = "MOUNTEMART_DB_HOST"
	EnvDBUser = "MOUNTEMART_DB_USER"
	EnvDBName = "MOUNTEMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
