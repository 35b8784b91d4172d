package auth

import (
	"context"
	"errors"
	"time"

	"facility-report/internal/features/user"
	"facility-report/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, *user.User, error)
	Verify(ctx context.Context, userID string) (*user.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AuthServiceImpl struct {
	UserRepo user.UserRepository
}

func NewAuthService(userRepo user.UserRepository) AuthService {
	return &AuthServiceImpl{
		UserRepo: userRepo,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*user.User, error) {
	if _, err := s.UserRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	newUser := &user.User{
		Email:     email,
		Password:  hashed,
		Role:      user.RoleUser,
		CreatedAt: time.Now(),
	}

	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	usr, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, usr.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(usr.ID, usr.Email, usr.Role)
	if err != nil {
		return "", nil, err
	}

	return token, usr, nil
}

func (s *AuthServiceImpl) Verify(ctx context.Context, userID string) (*user.User, error) {
	return s.UserRepo.FindByID(ctx, userID)
}

func (s *AuthServiceImpl) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}
