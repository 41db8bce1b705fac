package domain

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Failure reasons reported to the storefront.
const (
	ReasonMethodNotAllowed            = "method_not_allowed"
	ReasonMissingReference            = "missing_reference"
	ReasonServerNotConfigured         = "server_not_configured"
	ReasonProcessorVerificationFailed = "processor_verification_failed"
	ReasonTransactionNotSuccessful    = "transaction_not_successful"
	ReasonAmountMismatch              = "amount_mismatch"
	ReasonServerError                 = "server_error"
	ReasonRateLimited                 = "rate_limited"
)

// TxStatusSuccess is the only processor transaction status that fulfils.
const TxStatusSuccess = "success"

const (
	AuditOutcomeFulfilled = "FULFILLED"
	AuditOutcomeRejected  = "REJECTED"
)
