package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
)

// AuthServiceName is the fully-qualified name of the auth service.
const AuthServiceName = "splitledger.v1.AuthService"

// Auth procedure paths.
const (
	RegisterProcedure       = "/" + AuthServiceName + "/Register"
	LoginProcedure          = "/" + AuthServiceName + "/Login"
	GetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	users         auth.UserStorage
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users auth.UserStorage, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
	}
}

// Handler returns the path prefix and handler for the auth procedures.
// Register and Login are public; requireAuth guards GetCurrentUser only.
func (s *AuthService) Handler(requireAuth connect.Interceptor, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	handlePublic(mux, RegisterProcedure, s.Register, opts)
	handlePublic(mux, LoginProcedure, s.Login, opts)

	protected := append(append([]connect.HandlerOption{}, opts...), connect.WithInterceptors(requireAuth))
	handle(mux, GetCurrentUserProcedure, s.GetCurrentUser, protected)
	return "/" + AuthServiceName + "/", mux
}

// Register creates a new user account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	slog.Info("Register request", "email", req.Email)

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.DisplayName) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email and display name are required"))
	}

	user, err := s.authenticator.Register(ctx, req.Email, strings.TrimSpace(req.DisplayName), req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("User registered successfully", "user_id", user.ID)
	return &AuthResponse{User: userMessage(user), Token: token}, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("Login failed", "email", req.Email)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: userMessage(user), Token: token}, nil
}

// GetCurrentUser returns the caller's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, caller string, _ *GetCurrentUserRequest) (*UserResponse, error) {
	user, err := s.users.GetUserByID(ctx, caller)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: userMessage(user)}, nil
}
