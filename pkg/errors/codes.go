package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinel codes used by Wrap and GetCode.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Document Module Error Codes
const (
	ErrCodeDocumentNotFound          ErrorCode = "DOC_001"
	ErrCodeDocumentAlreadyExists     ErrorCode = "DOC_002"
	ErrCodeDocumentEmpty             ErrorCode = "DOC_003"
	ErrCodeDocumentExtractFailed     ErrorCode = "DOC_004"
	ErrCodeDocumentTooLarge          ErrorCode = "DOC_005"
	ErrCodeDocumentFormatUnsupported ErrorCode = "DOC_006"
	ErrCodeDocumentStoreFailed       ErrorCode = "DOC_007"
)

// Segmentation Module Error Codes
const (
	ErrCodeSegNoSections ErrorCode = "SEG_001"
	ErrCodeSegEmptyInput ErrorCode = "SEG_002"
)

// Comparison Module Error Codes
const (
	ErrCodeRunNotFound            ErrorCode = "CMP_001"
	ErrCodeRunInvalidState        ErrorCode = "CMP_002"
	ErrCodeRunFailed              ErrorCode = "CMP_003"
	ErrCodeResultNotFound         ErrorCode = "CMP_004"
	ErrCodeReportGenerationFailed ErrorCode = "CMP_005"
	ErrCodeSameDocumentComparison ErrorCode = "CMP_006"
)

// Analysis Module Error Codes
const (
	ErrCodeAnalysisUnavailable     ErrorCode = "ANL_001"
	ErrCodeAnalysisFailed          ErrorCode = "ANL_002"
	ErrCodeAnalysisResponseInvalid ErrorCode = "ANL_003"
)

// Clause Search Error Codes
const (
	ErrCodeIndexFailed  ErrorCode = "SRCH_001"
	ErrCodeSearchFailed ErrorCode = "SRCH_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeDocumentNotFound:          http.StatusNotFound,
	ErrCodeDocumentAlreadyExists:     http.StatusConflict,
	ErrCodeDocumentEmpty:             http.StatusUnprocessableEntity,
	ErrCodeDocumentExtractFailed:     http.StatusBadGateway,
	ErrCodeDocumentTooLarge:          http.StatusRequestEntityTooLarge,
	ErrCodeDocumentFormatUnsupported: http.StatusUnsupportedMediaType,
	ErrCodeDocumentStoreFailed:       http.StatusInternalServerError,

	ErrCodeSegNoSections: http.StatusUnprocessableEntity,
	ErrCodeSegEmptyInput: http.StatusUnprocessableEntity,

	ErrCodeRunNotFound:            http.StatusNotFound,
	ErrCodeRunInvalidState:        http.StatusConflict,
	ErrCodeRunFailed:              http.StatusInternalServerError,
	ErrCodeResultNotFound:         http.StatusNotFound,
	ErrCodeReportGenerationFailed: http.StatusInternalServerError,
	ErrCodeSameDocumentComparison: http.StatusBadRequest,

	ErrCodeAnalysisUnavailable:     http.StatusServiceUnavailable,
	ErrCodeAnalysisFailed:          http.StatusBadGateway,
	ErrCodeAnalysisResponseInvalid: http.StatusBadGateway,

	ErrCodeIndexFailed:  http.StatusInternalServerError,
	ErrCodeSearchFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeDocumentNotFound:          "document not found",
	ErrCodeDocumentAlreadyExists:     "document already exists",
	ErrCodeDocumentEmpty:             "document contains no extractable text",
	ErrCodeDocumentExtractFailed:     "failed to extract document text",
	ErrCodeDocumentTooLarge:          "document exceeds size limit",
	ErrCodeDocumentFormatUnsupported: "unsupported document format",
	ErrCodeDocumentStoreFailed:       "failed to store document",

	ErrCodeSegNoSections: "no sections found in document text",
	ErrCodeSegEmptyInput: "document text is empty",

	ErrCodeRunNotFound:            "comparison run not found",
	ErrCodeRunInvalidState:        "comparison run is in an invalid state",
	ErrCodeRunFailed:              "comparison run failed",
	ErrCodeResultNotFound:         "comparison result not found",
	ErrCodeReportGenerationFailed: "failed to generate comparison report",
	ErrCodeSameDocumentComparison: "client and vendor documents must differ",

	ErrCodeAnalysisUnavailable:     "analysis service not available",
	ErrCodeAnalysisFailed:          "clause analysis failed",
	ErrCodeAnalysisResponseInvalid: "analysis service returned an invalid response",

	ErrCodeIndexFailed:  "failed to index clauses",
	ErrCodeSearchFailed: "clause search failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
