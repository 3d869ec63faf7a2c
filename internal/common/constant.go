package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// IdempotencyKeyHeaderName lets clients retry a wallet mutation safely.
const IdempotencyKeyHeaderName = "Idempotency-Key"

// DateLayout is the calendar-day format used for transaction dates.
const DateLayout = "2006-01-02"

// TimestampLayout is used when wallet actions are displayed.
const TimestampLayout = "2006-01-02 15:04"
