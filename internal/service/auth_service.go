package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/mailer"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/database"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/quota"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenExpiry = 24 * time.Hour

// defaultLanguage is the answer language when the user never picked one.
const defaultLanguage = "ar"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("user account is blocked")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error)
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	quota        *quota.Service
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, emailService mailer.IEmailService, quotaService *quota.Service) IAuthService {
	return &authService{
		uowFactory:   uowFactory,
		emailService: emailService,
		quota:        quotaService,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, _ := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
		Language:     language,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Two concurrent registrations can both pass the FindOne check;
		// the unique index on email settles the race.
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.emailService != nil {
		// Best effort, registration never blocks on SMTP.
		go func() {
			_ = s.emailService.SendWelcome(user.Email, user.FullName)
		}()
	}

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}

	signedToken, err := signAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     string(user.Role),
			Language: user.Language,
		},
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	res := &dto.ProfileResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Language:  user.Language,
		CreatedAt: user.CreatedAt,
	}
	if s.quota != nil {
		res.AdviceRemaining = s.quota.Remaining(ctx, userId, quota.KindAdvice)
		res.ContractRemaining = s.quota.Remaining(ctx, userId, quota.KindContract)
	}
	return res, nil
}

func signAccessToken(user *entity.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    string(user.Role),
		"exp":     time.Now().Add(accessTokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return token.SignedString([]byte(secret))
}
