package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"microblog/internal/httputil"
	"microblog/internal/metrics"
	"microblog/internal/model"
)

type finderFunc func(ctx context.Context, apiKey string) (*model.User, error)

func (f finderFunc) FindByKey(ctx context.Context, apiKey string) (*model.User, error) {
	return f(ctx, apiKey)
}

func TestAPIKeyAuth(t *testing.T) {
	finder := finderFunc(func(_ context.Context, key string) (*model.User, error) {
		switch key {
		case "good":
			return &model.User{ID: 7, Username: "alice"}, nil
		case "broken":
			return nil, errors.New("db down")
		}
		return nil, model.ErrUserNotFound
	})

	m := metrics.New(prometheus.NewRegistry())
	handler := APIKeyAuth(finder, m, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		user, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, id, user.ID)
		httputil.WriteOK(w)
	}))

	tests := []struct {
		name    string
		key     string
		status  int
		errType string
		message string
	}{
		{"missing", "", 401, httputil.ErrTypeUnauthorized, "missing api-key header"},
		{"invalid", "bad", 401, httputil.ErrTypeUnauthorized, "invalid api-key"},
		{"lookup failure", "broken", 500, httputil.ErrTypeInternal, "internal server error"},
		{"valid", "good", 200, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.errType == "" {
				return
			}
			var body httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.errType, body.ErrorType)
			require.Equal(t, tt.message, body.ErrorMessage)
		})
	}

	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues("missing")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues("invalid")))
}

func TestGetUserIDFromContextEmpty(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	require.False(t, ok)
}
