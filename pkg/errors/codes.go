package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal   ErrorCode = "COMMON_001"
	ErrCodeBadRequest ErrorCode = "COMMON_002"
	ErrCodeNotFound   ErrorCode = "COMMON_005"
	ErrCodeCacheError ErrorCode = "COMMON_013"
	ErrCodeUnknown    ErrorCode = "COMMON_000"
)

// Protocol Module Error Codes
const (
	ErrCodeInvalidAnchor    ErrorCode = "PROTO_001"
	ErrCodeInvalidSchedule  ErrorCode = "PROTO_002"
	ErrCodeProtocolNotFound ErrorCode = "PROTO_003"
)

// Protocol Source Error Codes
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceParse       ErrorCode = "SRC_002"
)

// Configuration Error Codes
const (
	ErrCodeConfigInvalid ErrorCode = "CFG_001"
)

// Short aliases used at call sites.
const (
	CodeOK                = ErrorCode("OK")
	CodeUnknown           = ErrCodeUnknown
	CodeInternal          = ErrCodeInternal
	CodeInvalidParam      = ErrCodeBadRequest
	CodeNotFound          = ErrCodeNotFound
	CodeCacheError        = ErrCodeCacheError
	CodeInvalidAnchor     = ErrCodeInvalidAnchor
	CodeInvalidSchedule   = ErrCodeInvalidSchedule
	CodeProtocolNotFound  = ErrCodeProtocolNotFound
	CodeSourceUnavailable = ErrCodeSourceUnavailable
	CodeSourceParse       = ErrCodeSourceParse
	CodeConfigInvalid     = ErrCodeConfigInvalid
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:   "internal error",
	ErrCodeBadRequest: "bad request",
	ErrCodeNotFound:   "resource not found",
	ErrCodeCacheError: "cache error",

	ErrCodeInvalidAnchor:    "invalid protocol anchor date",
	ErrCodeInvalidSchedule:  "invalid milestone schedule",
	ErrCodeProtocolNotFound: "protocol not found",

	ErrCodeSourceUnavailable: "protocol source unavailable",
	ErrCodeSourceParse:       "failed to parse protocol source",

	ErrCodeConfigInvalid: "invalid configuration",
}

// ExitCodes maps ErrorCodes to process exit statuses used by the CLI.
// Codes absent from the map exit with 1.
var ExitCodes = map[ErrorCode]int{
	ErrCodeBadRequest:        2,
	ErrCodeInvalidAnchor:     2,
	ErrCodeConfigInvalid:     3,
	ErrCodeSourceUnavailable: 4,
	ErrCodeSourceParse:       4,
	ErrCodeNotFound:          5,
	ErrCodeProtocolNotFound:  5,
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ExitCodeForCode returns the CLI exit status for an ErrorCode.
func ExitCodeForCode(code ErrorCode) int {
	if status, ok := ExitCodes[code]; ok {
		return status
	}
	return 1
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
