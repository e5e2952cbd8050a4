package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var _ api.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and signs them in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.InfoContext(ctx, "Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.WarnContext(ctx, "Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrMissingDisplayName):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered successfully", "user_id", user.ID)
	return connect.NewResponse(&api.RegisterResponse{Token: token, User: toAPIUser(user)}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.InfoContext(ctx, "Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.WarnContext(ctx, "Login failed", "email", req.Msg.Email)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{Token: token, User: toAPIUser(user)}), nil
}

// GetCurrentUser returns the authenticated user's profile.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "GetCurrentUser request", "user_id", userID)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		// A valid token for a user that no longer exists.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (string, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", "user_id", user.ID, "error", err)
		return "", connect.NewError(connect.CodeInternal, err)
	}
	return token, nil
}
