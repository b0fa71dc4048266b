package constants

type ContextKey string

const (
	LoggerKey    ContextKey = "logger"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	TenantKey    ContextKey = "tenant"
	UserIDKey    ContextKey = "user-id"
	ParamsKey    ContextKey = "params"
	RequestStart ContextKey = "request-start"
)
