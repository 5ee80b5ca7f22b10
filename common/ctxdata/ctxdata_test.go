package ctxdata

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	assert.Equal(t, int64(0), UserID(context.Background()))
	assert.Equal(t, int64(42), UserID(WithUserID(context.Background(), 42)))

	tests := []struct {
		name  string
		claim interface{}
		want  int64
	}{
		{"json number", json.Number("1001"), 1001},
		{"float", float64(7), 7},
		{"numeric string", "12", 12},
		{"garbage", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.WithValue(context.Background(), ClaimUserID, tt.claim) //nolint:staticcheck
			assert.Equal(t, tt.want, UserID(ctx))
		})
	}
}

func TestTraceID(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
	assert.Equal(t, "t-1", TraceID(WithTraceID(context.Background(), "t-1")))
}
