package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "abc", FromContext(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "", FromContext(context.Background()))
	assert.Equal(t, "", FromContext(context.WithValue(context.Background(), RequestIDKey, 42)))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		wantSame bool
	}{
		{name: "no header", inbound: "", wantSame: false},
		{name: "well formed", inbound: "client-req_01.a", wantSame: true},
		{name: "too long", inbound: strings.Repeat("a", 65), wantSame: false},
		{name: "newline injection", inbound: "abc\nlevel=ERROR", wantSame: false},
		{name: "spaces", inbound: "a b", wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/articles", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.wantSame {
				assert.Equal(t, tt.inbound, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err, "generated id must be a UUID")
			}
		})
	}
}
