package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// Client errors are logged at warn level, internal failures at error level.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", procedure,
				"user_id", GetUserID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				slog.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if !errors.As(err, &connectErr) {
				slog.ErrorContext(ctx, "RPC error", append(attrs, "error", err)...)
				return resp, err
			}

			attrs = append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())
			if kind := connectErr.Meta().Get(api.ValidationKindHeader); kind != "" {
				attrs = append(attrs, "validation_kind", kind)
			}
			if connectErr.Code() == connect.CodeInternal || connectErr.Code() == connect.CodeUnknown {
				slog.ErrorContext(ctx, "RPC error", attrs...)
			} else {
				slog.WarnContext(ctx, "RPC error", attrs...)
			}
			return resp, err
		}
	}
}
