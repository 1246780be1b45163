// internal/service/user/application/service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/pkg/logger"
	"petshop/internal/pkg/session"
	"petshop/internal/service/user/domain"
)

// AuthBackend 是外部认证后端的抽象
type AuthBackend interface {
	Login(ctx context.Context, username, password string) (*domain.Account, error)
	ForgotPassword(ctx context.Context, username string) error
	SendOTP(ctx context.Context, username string) error
	VerifyOTP(ctx context.Context, username, otp string) error
}

// AuthService 把外部认证和服务端会话粘起来：
// 认证成功才建会话，角色以认证后端返回的为准。
type AuthService struct {
	backend  AuthBackend
	sessions *session.Manager
	tracer   trace.Tracer
}

func NewAuthService(backend AuthBackend, sessions *session.Manager) *AuthService {
	return &AuthService{
		backend:  backend,
		sessions: sessions,
		tracer:   otel.Tracer("user-service"),
	}
}

// LoginResult 登录成功后返回给客户端的内容
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Login 校验凭证并创建服务端会话
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("user.name", username))

	account, err := s.backend.Login(ctx, username, password)
	if err != nil {
		span.AddEvent("login rejected")
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, account.Username, account.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create session")
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("username", account.Username).Bool("admin", account.IsAdmin()).Msg("user logged in")
	return &LoginResult{
		Token:    sess.Token,
		Username: sess.Username,
		IsAdmin:  sess.IsAdmin(),
	}, nil
}

// Logout 销毁会话。销毁不存在的会话不是错误。
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout")
	defer span.End()
	return s.sessions.Destroy(ctx, token)
}

// ForgotPassword 透传到认证后端
func (s *AuthService) ForgotPassword(ctx context.Context, username string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()
	return s.backend.ForgotPassword(ctx, username)
}

// SendOTP 透传到认证后端
func (s *AuthService) SendOTP(ctx context.Context, username string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.SendOTP")
	defer span.End()
	return s.backend.SendOTP(ctx, username)
}

// VerifyOTP 透传到认证后端
func (s *AuthService) VerifyOTP(ctx context.Context, username, otp string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.VerifyOTP")
	defer span.End()
	return s.backend.VerifyOTP(ctx, username, otp)
}
