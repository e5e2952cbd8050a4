package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

type serverDeps struct {
	store    storage.Store
	jwt      *auth.JWTManager
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	cache    *cache.BalanceCache // nil disables caching
	logger   *slog.Logger
}

// newHandler wires the ledger, the aggregator and the Connect services into a
// single HTTP handler serving HTTP/1.1 and cleartext HTTP/2.
func newHandler(d serverDeps) http.Handler {
	var (
		ledgerOpts []ledger.Option
		aggOpts    []calculator.AggregatorOption
	)
	if d.cache != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithInvalidator(d.cache))
		aggOpts = append(aggOpts, calculator.WithCache(d.cache))
	}
	l := ledger.New(d.store, d.store, ledgerOpts...)
	agg := calculator.NewAggregator(l, aggOpts...)

	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			middleware.RequireAuth(d.jwt, api.AuthServiceRegisterProcedure, api.AuthServiceLoginProcedure),
			middleware.LoggingInterceptor(),
			middleware.MetricsInterceptor(d.metrics),
		),
		connect.WithRecover(func(ctx context.Context, spec connect.Spec, _ http.Header, r any) error {
			slog.ErrorContext(ctx, "panic in handler", "procedure", spec.Procedure, "panic", r)
			return connect.NewError(connect.CodeInternal, errors.New("internal error"))
		}),
	}

	mux := http.NewServeMux()
	mux.Handle(api.NewLedgerServiceHandler(service.NewLedgerService(l, agg, d.store, d.metrics), opts...))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(d.store), opts...))
	mux.Handle(api.NewAuthServiceHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(d.store), d.jwt, d.store, d.logger), opts...))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	traced := otelhttp.NewHandler(corsMiddleware(mux), "splitledger",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)

	// h2c for HTTP/2 without TLS, required by gRPC clients
	return h2c.NewHandler(traced, &http2.Server{})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+api.ValidationKindHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
