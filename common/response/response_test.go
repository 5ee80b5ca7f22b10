package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"event-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "invalid field", err: errorx.ErrInvalidField("endAt", "x"), want: http.StatusBadRequest},
		{name: "not found", err: errorx.New(errorx.CodeEventNotFound), want: http.StatusNotFound},
		{name: "forbidden", err: errorx.New(errorx.CodeEventPermissionDenied), want: http.StatusForbidden},
		{name: "precondition", err: errorx.New(errorx.CodeEventFull), want: http.StatusConflict},
		{name: "rate limited", err: errorx.ErrTooManyRequests(), want: http.StatusTooManyRequests},
		{name: "internal", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HttpStatus(tt.err))
		})
	}
}

func TestFailCarriesField(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, errorx.ErrInvalidField("startAt", "too soon"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errorx.CodeInvalidParams, resp.Code)
	assert.Equal(t, "startAt", resp.Field)
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]int{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errorx.CodeSuccess, resp.Code)
}
