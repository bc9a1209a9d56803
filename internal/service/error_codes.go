package service

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument    = 1000
	ErrCodeInvalidID          = 1001
	ErrCodeInvalidSlot        = 1002
	ErrCodeMissingRequired    = 1003
	ErrCodeFileTooLarge       = 1004
	ErrCodeTooManyFiles       = 1005
	ErrCodeUnsupportedFormat  = 1006
	ErrCodeInvalidEditions    = 1007
	ErrCodeFrozen             = 1008
	ErrCodeCollectionsShrunk  = 1009
	ErrCodeInsufficientCredit = 1010
	ErrCodeImageTooLarge      = 1011
	ErrCodeCollectionsMoved   = 1012

	// Domain state (2xxx)
	ErrCodeAssetNotFound = 2001
	ErrCodeAgentNotFound = 2002
	ErrCodeAlreadyMinted = 2101
	ErrCodeConflict      = 2102

	// Authorization (3xxx)
	ErrCodeUnauthorized = 3001

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
)

func defaultErrorCodeByKind(kind Kind) int {
	switch kind {
	case KindValidation:
		return ErrCodeInvalidArgument
	case KindNotFound:
		return ErrCodeAssetNotFound
	case KindConflict:
		return ErrCodeConflict
	case KindUnauthorized:
		return ErrCodeUnauthorized
	case KindIO:
		return ErrCodeStoreFailure
	default:
		return ErrCodeInternal
	}
}
