package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "IMPORTGROUPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv      = "IMPORTGROUPS_APP_ENV"
	EnvDBDriver    = "IMPORTGROUPS_DB_DRIVER"
	EnvDBDSN       = "IMPORTGROUPS_DB_DSN"
	EnvDBHost      = "IMPORTGROUPS_DB_HOST"
	EnvDBUser      = "IMPORTGROUPS_DB_USER"
	EnvDBName      = "IMPORTGROUPS_DB_NAME"
	EnvJWTSecret   = "IMPORTGROUPS_JWT_SECRET"
	EnvTickEvery   = "IMPORTGROUPS_GROUPS_TICK_INTERVAL"
	EnvRetireAfter = "IMPORTGROUPS_GROUPS_RETIRE_DELAY"
	EnvMaxDemo     = "IMPORTGROUPS_GROUPS_MAX_DEMO"
	EnvCreateProb  = "IMPORTGROUPS_GROUPS_CREATE_PROBABILITY"
	EnvSeed        = "IMPORTGROUPS_GROUPS_SEED"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
