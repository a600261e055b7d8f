package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidDate          ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeSymbolNotFound        ErrorCode = 202
	ErrCodeUnsortedSeries        ErrorCode = 203
	ErrCodeNegativePrice         ErrorCode = 204

	// Table shape errors (300-399)
	ErrCodeShapeMismatch  ErrorCode = 300
	ErrCodeColumnNotFound ErrorCode = 301

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703
	ErrCodeInvalidWriter         ErrorCode = 704
)
