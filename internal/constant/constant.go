package constant

type ctxKey string

const (
	CorrelationIDKey ctxKey = "CorrelationID"
)

// Keys for values stored on *gin.Context by request stages.
const (
	IdentityKey        = "identity"
	ValidatedBodyKey   = "validatedBody"
	ValidatedParamsKey = "validatedParams"
	ValidatedQueryKey  = "validatedQuery"
)

const CorrelationIDHeader = "X-Correlation-ID"
