package auth

import (
	"context"
	"errors"
	"time"

	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/apperr"
	"github.com/quillpost/core/internal/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindInvalidCredentials, "Invalid credentials")
	ErrUserNotFound       = apperr.NotFound("User not found")
)

type Service struct {
	db         *gorm.DB
	logger     *zap.Logger
	tokenTTL   time.Duration
	bcryptCost int
}

type Option func(*Service)

// WithTokenTTL sets the lifetime of issued tokens; zero keeps the default.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:         db,
		logger:     zap.NewNop(),
		tokenTTL:   jwt.DefaultTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a regular user and signs a token for it.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (string, *models.UserModel, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return "", nil, err
	}
	u := models.UserModel{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Avatar:   models.DefaultAvatar,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.UserModel{}).Where("email = ?", dto.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate("email")
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return "", nil, err
	}

	token, err := jwt.Sign(u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("user registered", zap.String("id", u.ID))
	return token, &u, nil
}

// Login verifies the credentials. Unknown email and wrong password are
// reported the same way.
func (s *Service) Login(ctx context.Context, dto *LoginDTO) (string, *models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", dto.Email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := jwt.Sign(u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
		u.Name = *dto.Name
	}
	if dto.Bio != nil {
		updates["bio"] = *dto.Bio
		u.Bio = *dto.Bio
	}
	if dto.Avatar != nil {
		avatar := *dto.Avatar
		if avatar == "" {
			avatar = models.DefaultAvatar
		}
		updates["avatar"] = avatar
		u.Avatar = avatar
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// EnsureAdmin creates an admin account for email unless one is registered.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if name == "" {
		name = "Admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return false, err
	}
	u := models.UserModel{Name: name, Email: email, Password: string(hash), Role: models.RoleAdmin, Avatar: models.DefaultAvatar}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return false, err
	}
	s.logger.Info("admin account created", zap.String("email", email))
	return true, nil
}
