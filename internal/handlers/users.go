package handlers

import (
	"context"

	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/user"
	"go.uber.org/zap"
)

// UserHandler serves signup, login and profile operations.
type UserHandler struct {
	users  *user.Service
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *user.Service, tokens *auth.TokenIssuer, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, logger: logger}
}

func (h *UserHandler) Signup(ctx context.Context, req *SignupRequest) (*UserResponse, error) {
	u, err := h.users.Signup(ctx, user.Signup{
		Email:           req.Body.Email,
		FirstName:       req.Body.FirstName,
		LastName:        req.Body.LastName,
		Password:        req.Body.Password1,
		PasswordConfirm: req.Body.Password2,
	})
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	h.logger.Info("user signed up", zap.Int64("user_id", u.ID))

	resp := &UserResponse{}
	resp.Body.Item = userBody(u)

	return resp, nil
}

func (h *UserHandler) Token(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	u, err := h.users.Authenticate(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	pair, err := h.tokens.Issue(u.ID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	return tokenResponse(pair), nil
}

func (h *UserHandler) Refresh(_ context.Context, req *RefreshTokenRequest) (*TokenResponse, error) {
	pair, err := h.tokens.Refresh(req.Body.RefreshToken)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	return tokenResponse(pair), nil
}

func (h *UserHandler) Details(ctx context.Context, _ *struct{}) (*UserResponse, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.users.Get(ctx, id)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &UserResponse{}
	resp.Body.Item = userBody(u)

	return resp, nil
}

func (h *UserHandler) Update(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.users.Update(ctx, id, user.Profile{FirstName: req.Body.FirstName, LastName: req.Body.LastName})
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &UserResponse{}
	resp.Body.Item = userBody(u)

	return resp, nil
}

func (h *UserHandler) ChangeEmail(ctx context.Context, req *ChangeEmailRequest) (*UserResponse, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.users.ChangeEmail(ctx, id, req.Body.Email)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	h.logger.Info("user email changed", zap.Int64("user_id", u.ID))

	resp := &UserResponse{}
	resp.Body.Item = userBody(u)

	return resp, nil
}

func (h *UserHandler) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*NoContentResponse, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = h.users.ChangePassword(ctx, id, user.PasswordChange{
		Old:        req.Body.OldPassword,
		New:        req.Body.NewPassword1,
		NewConfirm: req.Body.NewPassword2,
	})
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	h.logger.Info("user password changed", zap.Int64("user_id", id))

	return &NoContentResponse{}, nil
}

func userBody(u *user.User) UserBody {
	return UserBody{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func tokenResponse(pair auth.TokenPair) *TokenResponse {
	resp := &TokenResponse{}
	resp.Body.AccessToken = pair.AccessToken
	resp.Body.RefreshToken = pair.RefreshToken
	resp.Body.TokenType = auth.BearerType

	return resp
}
