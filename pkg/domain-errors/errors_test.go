package domainerrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "cohortd/pkg/domain-errors"
)

func TestWrapNilCauseReturnsNil(t *testing.T) {
	assert.NoError(t, dErrors.Wrap(nil, dErrors.CodeInternal, "should vanish"))
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	base := dErrors.New(dErrors.CodeNotFound, "no such batch")
	wrapped := fmt.Errorf("loading batch: %w", base)

	assert.True(t, dErrors.HasCode(wrapped, dErrors.CodeNotFound))
	assert.False(t, dErrors.HasCode(wrapped, dErrors.CodeConflict))
	assert.False(t, dErrors.HasCode(errors.New("plain"), dErrors.CodeNotFound))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(errors.New("plain")))
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(dErrors.New(dErrors.CodeBadRequest, "x")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(cause, dErrors.CodeUnavailable, "store down")

	assert.ErrorIs(t, err, cause)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeBadRequest:         http.StatusBadRequest,
		dErrors.CodeInvalidInput:       http.StatusBadRequest,
		dErrors.CodeValidation:         http.StatusUnprocessableEntity,
		dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
		dErrors.CodeNotFound:           http.StatusNotFound,
		dErrors.CodeConflict:           http.StatusConflict,
		dErrors.CodeTimeout:            http.StatusGatewayTimeout,
		dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
		dErrors.CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, dErrors.ToHTTPStatus(dErrors.New(code, "x")), "code %s", code)
	}
	assert.Equal(t, http.StatusInternalServerError, dErrors.ToHTTPStatus(errors.New("plain")))
}
