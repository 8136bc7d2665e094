package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeConflict, 409},
		{ErrCodeValidation, 422},
		{ErrCodeDocumentEmpty, 422},
		{ErrCodeDocumentExtractFailed, 502},
		{ErrCodeSegNoSections, 422},
		{ErrCodeRunNotFound, 404},
		{ErrCodeAnalysisUnavailable, 503},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "no sections found in document text", DefaultMessageForCode(ErrCodeSegNoSections))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeDocumentTooLarge))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeAnalysisFailed))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "DOC", ModuleForCode(ErrCodeDocumentNotFound))
	assert.Equal(t, "SEG", ModuleForCode(ErrCodeSegNoSections))
	assert.Equal(t, "CMP", ModuleForCode(ErrCodeRunNotFound))
	assert.Equal(t, "ANL", ModuleForCode(ErrCodeAnalysisFailed))
	assert.Equal(t, "SRCH", ModuleForCode(ErrCodeSearchFailed))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	allCodes := []ErrorCode{
		ErrCodeInternal, ErrCodeBadRequest, ErrCodeDocumentNotFound, ErrCodeDocumentEmpty,
		ErrCodeSegNoSections, ErrCodeRunNotFound, ErrCodeRunFailed,
		ErrCodeAnalysisUnavailable, ErrCodeIndexFailed, ErrCodeSearchFailed,
	}
	for _, code := range allCodes {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		ErrCodeInternal, ErrCodeBadRequest, ErrCodeUnauthorized, ErrCodeForbidden,
		ErrCodeNotFound, ErrCodeConflict, ErrCodeTooManyRequests, ErrCodeServiceUnavailable,
		ErrCodeTimeout, ErrCodeValidation, ErrCodeSerialization, ErrCodeDatabaseError,
		ErrCodeCacheError, ErrCodeExternalService, ErrCodeMessageQueueError, ErrCodeNotImplemented,
		ErrCodeDocumentNotFound, ErrCodeDocumentAlreadyExists, ErrCodeDocumentEmpty,
		ErrCodeDocumentExtractFailed, ErrCodeDocumentTooLarge, ErrCodeDocumentFormatUnsupported,
		ErrCodeDocumentStoreFailed, ErrCodeSegNoSections, ErrCodeSegEmptyInput,
		ErrCodeRunNotFound, ErrCodeRunInvalidState, ErrCodeRunFailed, ErrCodeResultNotFound,
		ErrCodeReportGenerationFailed, ErrCodeSameDocumentComparison,
		ErrCodeAnalysisUnavailable, ErrCodeAnalysisFailed, ErrCodeAnalysisResponseInvalid,
		ErrCodeIndexFailed, ErrCodeSearchFailed,
	}
	for _, code := range allCodes {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasStatus, "missing status for %s", code)
		assert.True(t, hasMessage, "missing message for %s", code)
	}
}
