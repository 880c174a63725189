package service

import (
	"context"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"
)

// TokenService 会话凭证生命周期：签发、刷新、吊销。
// 访问令牌短时效、自校验；刷新令牌每次使用前都查吊销集合。
type TokenService struct {
	UserRepo    *repository.UserRepository
	Revocations repository.RevocationStore
	Cfg         *config.Config
}

func NewTokenService(userRepo *repository.UserRepository, revocations repository.RevocationStore, cfg *config.Config) *TokenService {
	return &TokenService{
		UserRepo:    userRepo,
		Revocations: revocations,
		Cfg:         cfg,
	}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *TokenService) Issue(user *model.User) (*TokenPair, error) {
	access, err := util.GenerateAccessToken(user, s.Cfg.JWT.Secret, s.Cfg.JWT.AccessExpire)
	if err != nil {
		return nil, err
	}
	refresh, err := util.GenerateRefreshToken(user, s.Cfg.JWT.Secret, s.Cfg.JWT.RefreshExpire)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh 校验刷新令牌并轮换：旧令牌立即进入吊销集合，返回新令牌对。
// 过期、格式错误、已吊销一律 ErrInvalidToken。
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.Revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, util.ErrInvalidToken
	}

	user, err := s.UserRepo.FindByID(claims.UserID)
	if err != nil || !user.IsActive {
		return nil, util.ErrInvalidToken
	}

	// 轮换：旧令牌在剩余有效期内不可再用
	if err := s.Revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}

	return s.Issue(user)
}

// Revoke 将刷新令牌加入吊销集合，幂等
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return err
	}
	return s.Revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (s *TokenService) parseRefresh(token string) (*util.Claims, error) {
	claims, err := util.ParseJWT(token, s.Cfg.JWT.Secret)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	if claims.TokenType != util.TokenTypeRefresh || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, util.ErrInvalidToken
	}
	return claims, nil
}
