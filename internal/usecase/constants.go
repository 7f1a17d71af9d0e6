package usecase

import "time"

const (
	// DefaultTransactionTimeout caps how long a database transaction may
	// hold a wallet row lock.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultMatchWindow bounds how far back reverse matching looks for a
	// pending contribution.
	DefaultMatchWindow = 2 * time.Hour

	// IdempotencyKeyTTL is how long API idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// feeConfigCacheKey and feeConfigCacheTTL control the active fee
	// configuration cache.
	feeConfigCacheKey = "fee_config:active"
	feeConfigCacheTTL = 5 * time.Minute
)
