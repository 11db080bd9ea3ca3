package user

import (
	"context"
	"errors"
	"time"

	"postalops/domain"
	"postalops/pkg/logger"
	"postalops/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type userService struct {
	userRepo UserRepository
	tokenTTL time.Duration
}

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

var validRoles = map[string]bool{
	RoleOperator: true,
	RoleAdmin:    true,
}

func NewUserService(userRepo UserRepository) *userService {
	return &userService{
		userRepo: userRepo,
		tokenTTL: 12 * time.Hour,
	}
}

func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, user.Email); err == nil {
		logger.Error("Email already exists")
		return domain.User{}, errors.New("email already registered")
	}

	if user.Role == "" {
		user.Role = RoleOperator
	}
	if !validRoles[user.Role] {
		return domain.User{}, errors.New("invalid role")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, errors.New("failed to process password")
	}
	user.Password = string(hashed)

	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.Error("Failed to create new user")
		return domain.User{}, err
	}

	created := *user
	created.Password = ""
	return created, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	account, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Invalid user credentials", err)
		return "", domain.User{}, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		logger.Error("User password incorrect", err)
		return "", domain.User{}, errors.New("invalid email or password")
	}

	token, err := utils.GenerateJWT(account.ID, account.Role, s.tokenTTL)
	if err != nil {
		logger.Error("Failed to sign token", err)
		return "", domain.User{}, errors.New("failed to sign token")
	}

	account.Password = ""
	return token, account, nil
}
