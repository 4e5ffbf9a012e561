package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAccountNotFound    = errors.New("账号不存在")
	ErrTokenRevoked       = errors.New("Token 已失效")
)

// TokenBlacklist Token 黑名单（Redis 实现见 pkg/redis）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 吊销 access token，refresh token 非空时一并吊销
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Me(ctx context.Context, userID, role string) (*dto.AccountResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// blacklist 为 nil 时登出只在客户端生效
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// account 三类账号的统一视图
type account struct {
	id           string
	name         string
	email        string
	role         string
	passwordHash string
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 依次在学生、教师、管理员中查找邮箱
	acc, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issue(acc, req.RememberMe)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, jwt.ErrTokenInvalid
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	acc, err := s.findByID(ctx, claims.UserID, claims.Role)
	if err != nil {
		return nil, err
	}

	// 旧 refresh token 轮换后作废
	s.revoke(ctx, claims)
	return s.issue(acc, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, raw := range []string{accessToken, refreshToken} {
		if raw == "" {
			continue
		}
		claims, err := s.jwtMgr.ParseToken(raw)
		if err != nil {
			// 已过期或无效的 token 无需吊销
			continue
		}
		s.revoke(ctx, claims)
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID, role string) (*dto.AccountResponse, error) {
	acc, err := s.findByID(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	resp := acc.response()
	return &resp, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *authService) issue(acc *account, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(acc.id, acc.role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(acc.id, acc.role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         acc.response(),
	}, nil
}

func (s *authService) checkRevoked(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("查询 Token 黑名单失败", zap.Error(err))
		return nil
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" {
		return
	}
	ttl := claims.Remaining(time.Now())
	if ttl <= 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("写入 Token 黑名单失败", zap.String("user_id", claims.UserID), zap.Error(err))
	}
}

func (s *authService) findByEmail(ctx context.Context, email string) (*account, error) {
	if st, err := s.repo.Student.GetByEmail(ctx, email); err == nil {
		return studentAccount(st), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if t, err := s.repo.Teacher.GetByEmail(ctx, email); err == nil {
		return teacherAccount(t), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if a, err := s.repo.Admin.GetByEmail(ctx, email); err == nil {
		return adminAccount(a), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, ErrAccountNotFound
}

func (s *authService) findByID(ctx context.Context, id, role string) (*account, error) {
	var (
		acc *account
		err error
	)
	switch role {
	case model.RoleStudent:
		var st *model.Student
		if st, err = s.repo.Student.GetByID(ctx, id); err == nil {
			acc = studentAccount(st)
		}
	case model.RoleTeacher:
		var t *model.Teacher
		if t, err = s.repo.Teacher.GetByID(ctx, id); err == nil {
			acc = teacherAccount(t)
		}
	case model.RoleAdmin:
		var a *model.Administrator
		if a, err = s.repo.Admin.GetByID(ctx, id); err == nil {
			acc = adminAccount(a)
		}
	default:
		return nil, ErrAccountNotFound
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("id", id), zap.String("role", role), zap.Error(err))
		return nil, err
	}
	return acc, nil
}

func studentAccount(st *model.Student) *account {
	return &account{id: st.StudentID, name: st.FullName(), email: st.Email, role: model.RoleStudent, passwordHash: st.PasswordHash}
}

func teacherAccount(t *model.Teacher) *account {
	return &account{id: t.TeacherID, name: t.FullName(), email: t.Email, role: model.RoleTeacher, passwordHash: t.PasswordHash}
}

func adminAccount(a *model.Administrator) *account {
	return &account{id: a.AdminID, name: a.FullName(), email: a.Email, role: model.RoleAdmin, passwordHash: a.PasswordHash}
}

func (a *account) response() dto.AccountResponse {
	return dto.AccountResponse{ID: a.id, Name: a.name, Email: a.email, Role: a.role}
}
