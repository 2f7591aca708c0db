package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// AuthService 注册、登录与令牌校验
type AuthService struct {
	users  repository.Collection
	tokens *utils.TokenManager
	now    func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(db repository.Database, tokens *utils.TokenManager) *AuthService {
	return &AuthService{
		users:  db.Collection(repository.UsersCollection),
		tokens: tokens,
		now:    time.Now,
	}
}

// Signup 注册新用户并签发令牌
func (s *AuthService) Signup(ctx context.Context, input models.UserSignup) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	count, err := s.users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.CreateDuplicateError("Email already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hash,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.InsertOne(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, utils.CreateDuplicateError("Email already registered")
		}
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{"userId": user.ID, "email": user.Email}, "用户注册成功")
	return s.respond("User created successfully", &user)
}

// Login 校验密码并签发令牌
func (s *AuthService) Login(ctx context.Context, input models.UserLogin) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}, &user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if !utils.VerifyPassword(input.Password, user.Password) {
		utils.LogWarn(map[string]interface{}{"email": email}, "登录密码错误")
		return nil, utils.CreateUnauthorizedError("Invalid credentials")
	}

	return s.respond("Login successful", &user)
}

// Authenticate 解析令牌并确认用户仍然存在
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.LoginUser, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, utils.CreateUnauthorizedError(err.Error())
	}

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": claims.UserID}, &user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateUnauthorizedError("User not found")
		}
		return nil, err
	}
	return &utils.LoginUser{ID: user.ID, Email: user.Email}, nil
}

func (s *AuthService) respond(message string, user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Message: message,
		Token:   token,
		User:    models.UserResponse{ID: user.ID, Email: user.Email},
	}, nil
}
