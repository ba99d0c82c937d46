package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret = "JWT_SECRET"
	EnvTokenTTL  = "TOKEN_TTL"

	EnvAdminUsername = "ADMIN_USERNAME"
	EnvAdminEmail    = "ADMIN_EMAIL"
	EnvAdminPassword = "ADMIN_PASSWORD"

	EnvResetTokenTTL    = "RESET_TOKEN_TTL"
	EnvExposeResetToken = "EXPOSE_RESET_TOKEN"

	EnvKafkaEnabled           = "KAFKA_ENABLED"
	EnvBookingEventsTopic     = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQTopic  = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvContactMessagesTopic   = "CONTACT_MESSAGES_TOPIC"
)
