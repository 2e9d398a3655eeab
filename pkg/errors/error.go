package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// TickValidationError represents a malformed price tick that was discarded.
	TickValidationError ErrorCode = "tick_validation_error"
	// RecordValidationError represents a malformed external OHLC record that was discarded.
	RecordValidationError ErrorCode = "record_validation_error"
	// TimeframeUnknownError represents an unknown timeframe name.
	TimeframeUnknownError ErrorCode = "timeframe_unknown_error"
	// LateTickError represents a tick rejected because its period closed past the grace window.
	LateTickError ErrorCode = "late_tick_error"

	// SourceUnavailableError represents an upstream price source fetch failure or timeout.
	SourceUnavailableError ErrorCode = "source_unavailable_error"
	// SourceResponseError represents an unusable upstream response body.
	SourceResponseError ErrorCode = "source_response_error"

	// WriteConflictError represents an optimistic write conflict that exhausted its retries.
	WriteConflictError ErrorCode = "write_conflict_error"

	// PostgresConfigError represents an invalid or nil candle store configuration.
	PostgresConfigError ErrorCode = "postgres_config_error"
	// PostgresConnectionError represents a failure connecting to the candle store.
	PostgresConnectionError ErrorCode = "postgres_connection_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
)

// Severity represents the severity level of an error.
type Severity string

const (
	// SeverityCritical indicates a critical error that requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityHigh indicates a high severity error that should be addressed promptly.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a medium severity error that should be addressed in due course.
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a low severity error that can be addressed at a later time.
	SeverityLow Severity = "low"
)

// Category represents the category of an error.
type Category string

const (
	// CategoryDatabase indicates an error related to database operations.
	CategoryDatabase Category = "database"
	// CategoryNetwork indicates an error related to network operations.
	CategoryNetwork Category = "network"
	// CategoryValidation indicates an error related to validation of input data.
	CategoryValidation Category = "validation"
	// CategoryBusinessLogic indicates an error related to business logic processing.
	CategoryBusinessLogic Category = "business_logic"
	// CategoryExternal indicates an error related to external services or APIs.
	CategoryExternal Category = "external"
	// CategoryUnknown indicates an unknown error category.
	CategoryUnknown Category = "unknown"
)
