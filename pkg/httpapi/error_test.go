package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/pkg/httpapi"
	"github.com/opdesk-io/opdesk/pkg/serrors"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"NOT_FOUND":                http.StatusNotFound,
		"UNAUTHORIZED":             http.StatusUnauthorized,
		"FORBIDDEN":                http.StatusForbidden,
		"CONFLICT_ALREADY_TAKEN":   http.StatusConflict,
		"CONFLICT_NOT_TAKEN":       http.StatusConflict,
		"VALIDATION_EMPTY_MESSAGE": http.StatusBadRequest,
		"SOMETHING_ELSE":           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, httpapi.StatusFor(code), code)
	}
}

func TestWriteServiceError_CodedError(t *testing.T) {
	t.Parallel()

	base := serrors.NewError("CONFLICT_ALREADY_TAKEN", "session is already taken over", "")
	wrapped := errors.Wrap(base, "takeover failed")

	rr := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteServiceError(rr, wrapped))

	assert.Equal(t, http.StatusConflict, rr.Code)
	var payload httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "CONFLICT_ALREADY_TAKEN", payload.Code)
	assert.Equal(t, "session is already taken over", payload.Message)
}

func TestWriteServiceError_OpaqueError(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteServiceError(rr, errors.New("pg: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var payload httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	// Internals never leak to the caller.
	assert.Equal(t, "internal server error", payload.Message)
}
