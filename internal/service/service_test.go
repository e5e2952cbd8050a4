package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

// testEnv is a full server over a temporary SQLite database.
type testEnv struct {
	ledger  api.LedgerServiceClient
	groups  api.GroupServiceClient
	auth    api.AuthServiceClient
	metrics *metrics.Metrics

	// ids and tokens of registered users, by display name
	ids    map[string]string
	tokens map[string]string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	l := ledger.New(store, store)
	agg := calculator.NewAggregator(l)

	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager, api.AuthServiceRegisterProcedure, api.AuthServiceLoginProcedure),
			middleware.LoggingInterceptor(),
			middleware.MetricsInterceptor(m),
		),
		connect.WithRecover(func(_ context.Context, _ connect.Spec, _ http.Header, r any) error {
			return connect.NewError(connect.CodeInternal, fmt.Errorf("panic: %v", r))
		}),
	}

	mux := http.NewServeMux()
	mux.Handle(api.NewLedgerServiceHandler(NewLedgerService(l, agg, store, m), opts...))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store), opts...))
	mux.Handle(api.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default()), opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		ledger:  api.NewLedgerServiceClient(server.Client(), server.URL),
		groups:  api.NewGroupServiceClient(server.Client(), server.URL),
		auth:    api.NewAuthServiceClient(server.Client(), server.URL),
		metrics: m,
		ids:     make(map[string]string),
		tokens:  make(map[string]string),
	}
}

// register signs up each name as <name>@example.com.
func (e *testEnv) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
			Email:       name + "@example.com",
			DisplayName: name,
			Password:    "password-" + name,
		}))
		require.NoError(t, err)
		e.ids[name] = resp.Msg.User.ID
		e.tokens[name] = resp.Msg.Token
	}
}

// as builds a request authenticated as the named user.
func as[T any](e *testEnv, name string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+e.tokens[name])
	return req
}

func connectCode(t *testing.T, err error) connect.Code {
	t.Helper()
	require.Error(t, err)
	return connect.CodeOf(err)
}
