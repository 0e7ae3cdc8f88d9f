package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for domain-level error handling. The messages of the
// trading errors are surfaced to callers verbatim, so they must not be
// wrapped by any layer that returns them.
var (
	ErrUnknownToken          = errors.New("This token doesnt exist")
	ErrDuplicateToken        = errors.New("This token already exists")
	ErrQuoteTokenForbidden   = errors.New("quote token cannot be traded")
	ErrInsufficientBalance   = errors.New("Not enought balance")
	ErrInsufficientQuote     = errors.New("quote balance too low")
	ErrInsufficientBase      = errors.New("token balance too low")
	ErrAmountOverflow        = errors.New("amount overflows 256 bits")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrTokenBalance          = errors.New("transfer amount exceeds balance")
	ErrTokenContractNotFound = errors.New("token_contract_not_found")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrWebhookNotFound       = errors.New("webhook_not_found")
)

// QuoteError reports a failure that names the quote token. The message
// embeds the quote symbol; errors.Is matches the wrapped sentinel.
type QuoteError struct {
	Err    error // ErrQuoteTokenForbidden or ErrInsufficientQuote
	Quote  Symbol
	Market bool // only meaningful for ErrInsufficientQuote
}

func (e *QuoteError) Error() string {
	switch {
	case e.Err == ErrQuoteTokenForbidden:
		return "Cannot trade " + string(e.Quote)
	case e.Market:
		return strings.ToLower(string(e.Quote)) + " balance too low"
	default:
		return "Not enought " + string(e.Quote)
	}
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Code returns the stable machine-readable code for err, used in API error
// bodies and metric labels.
func Code(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.Is(err, ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, ErrDuplicateToken):
		return "duplicate_token"
	case errors.Is(err, ErrQuoteTokenForbidden):
		return "quote_token_forbidden"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInsufficientQuote):
		return "insufficient_quote"
	case errors.Is(err, ErrInsufficientBase):
		return "insufficient_base"
	case errors.Is(err, ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, ErrInsufficientAllowance), errors.Is(err, ErrTokenBalance):
		return "token_transfer_failed"
	case errors.Is(err, ErrTokenContractNotFound):
		return "token_contract_not_found"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrWebhookNotFound):
		return "webhook_not_found"
	}
	return "internal_error"
}
