package domain

// STK push request defaults.
const (
	TransactionTypePayBillOnline = "CustomerPayBillOnline"
	DefaultAccountReference      = "Test"
	DefaultTransactionDesc       = "Test Payment"
)

// Gateway environments.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Provider names selectable through configuration.
const (
	ProviderDaraja = "daraja"
	ProviderStub   = "stub"
)

// Names of the items carried in a successful STK callback.
const (
	CallbackItemAmount          = "Amount"
	CallbackItemReceiptNumber   = "MpesaReceiptNumber"
	CallbackItemPhoneNumber     = "PhoneNumber"
	CallbackItemTransactionDate = "TransactionDate"
)

// Caller-facing messages. Gateway detail is logged, never returned.
const (
	MsgPaymentInitiated  = "Payment request initiated"
	MsgMissingFields     = "Phone number and amount are required"
	MsgInvalidBody       = "Invalid request body"
	MsgTokenFailed       = "Failed to generate access token"
	MsgPaymentFailed     = "Failed to initiate payment"
	MsgInternalError     = "Internal server error"
	MsgNotFound          = "Not found"
	MsgUnauthorized      = "Unauthorized"
	MsgRateLimitExceeded = "Rate limit exceeded"
)
