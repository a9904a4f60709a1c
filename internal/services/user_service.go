package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"

	"waxhands/internal/models"
	"waxhands/internal/repositories"
	"waxhands/utils"
)

const (
	tokenTTL        = 20 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	resetCodeTTL    = 10 * time.Minute
)

type UserService struct {
	UserRepo     *repositories.UserRepository
	TokenManager *utils.Manager
	Redis        *redis.Client
	SigningKey   string
}

func (s *UserService) SignUp(ctx context.Context, user models.User) (models.SignUpResponse, error) {
	existingUser1, err := s.UserRepo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return models.SignUpResponse{}, err
	}
	if existingUser1.Email != "" {
		return models.SignUpResponse{}, models.ErrDuplicateEmail
	}

	existingUser2, err := s.UserRepo.GetUserByPhone(ctx, user.Phone)
	if err != nil {
		return models.SignUpResponse{}, err
	}
	if existingUser2.Phone != "" {
		return models.SignUpResponse{}, models.ErrDuplicatePhone
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.SignUpResponse{}, err
	}
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = "user"
	}

	user, err = s.UserRepo.CreateUser(ctx, user)
	if err != nil {
		return models.SignUpResponse{}, err
	}
	user.Password = ""

	tokens, err := s.createSession(ctx, user)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	return models.SignUpResponse{User: user, Tokens: tokens}, nil
}

func (s *UserService) SignIn(ctx context.Context, phone, email, password string) (models.Tokens, error) {
	user, err := s.UserRepo.GetUserByPhone(ctx, phone)
	if err != nil {
		return models.Tokens{}, err
	}
	if user.ID == 0 && email != "" {
		user, err = s.UserRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return models.Tokens{}, err
		}
	}
	if user.ID == 0 {
		return models.Tokens{}, models.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("Invalid password for user: %d", user.ID)
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	return s.createSession(ctx, user)
}

func (s *UserService) createSession(ctx context.Context, user models.User) (models.Tokens, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		UserID: uint(user.ID),
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	accessToken, err := token.SignedString([]byte(s.SigningKey))
	if err != nil {
		return models.Tokens{}, err
	}

	refreshToken := uuid.New().String()
	if s.TokenManager != nil {
		refreshToken, err = s.TokenManager.NewRefreshToken()
		if err != nil {
			return models.Tokens{}, err
		}
	}

	err = s.UserRepo.CreateSession(ctx, models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return models.Tokens{}, err
	}

	return models.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.UserRepo.GetUsers(ctx)
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	return s.UserRepo.UpdateUser(ctx, user)
}

func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	return s.UserRepo.DeleteUser(ctx, id)
}

// Сброс пароля: код живёт в redis с TTL, в БД ничего не пишем до подтверждения.

func resetCodeKey(userID int) string { return "reset_code:" + strconv.Itoa(userID) }

func (s *UserService) RequestPasswordReset(ctx context.Context, userID int) (string, error) {
	if s.Redis == nil {
		return "", fmt.Errorf("reset codes storage is not configured")
	}
	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := s.Redis.Set(ctx, resetCodeKey(userID), code, resetCodeTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

func (s *UserService) VerifyResetCode(ctx context.Context, userID int, code string) (bool, error) {
	if s.Redis == nil {
		return false, fmt.Errorf("reset codes storage is not configured")
	}
	stored, err := s.Redis.Get(ctx, resetCodeKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == code, nil
}

func (s *UserService) ResetPassword(ctx context.Context, userID int, code, newPassword string) error {
	ok, err := s.VerifyResetCode(ctx, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}
	return s.Redis.Del(ctx, resetCodeKey(userID)).Err()
}
