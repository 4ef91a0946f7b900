package constant

import "time"

const (
	QUERY_TIMEOUT_DURATION = 10 * time.Second

	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"

	JWT_TYPE_ACCESS = "access"

	// Public verification messages. These bodies are part of the public contract.
	VERIFY_NOT_FOUND           = "Certificate not found"
	VERIFY_UNAVAILABLE         = "Certificate temporarily unavailable"
	VERIFY_REGENERATION_FAILED = "Certificate could not be produced"

	CONTEXT_USER_KEY = "user"
)
