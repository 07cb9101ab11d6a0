package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const minPasswordLength = 8

// RegisterRequest creates a store and its owner in one step.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name"`
	StoreName    string `json:"store_name" binding:"required"`
	StoreAddress string `json:"store_address"`
	StorePhone   string `json:"store_phone"`
}

// CreateManagerRequest adds a sub-location manager account.
type CreateManagerRequest struct {
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	Name          string `json:"name"`
	SubLocationID int64  `json:"sub_location_id" binding:"required"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *models.User  `json:"user"`
	Store     *models.Store `json:"store,omitempty"`
}

// AuthService provides account registration and login.
type AuthService struct {
	users  UserStore
	stores StoreDirectory
	jwt    *utils.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users UserStore, stores StoreDirectory, jwt *utils.JWTManager) *AuthService {
	return &AuthService{users: users, stores: stores, jwt: jwt}
}

// Register creates a store owner account together with its store.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, utils.NewValidationError("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(req.StoreName) == "" {
		return nil, utils.NewValidationError("store_name", "is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleStoreOwner,
	}
	store := &models.Store{
		Name:    strings.TrimSpace(req.StoreName),
		Address: req.StoreAddress,
		Phone:   req.StorePhone,
		Email:   email,
	}
	if err := s.users.RegisterStoreOwner(ctx, user, store); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Int64("store_id", store.ID).Msg("Store owner registered")
	return s.issue(user, store)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", user.Email).Msg("Password verification failed")
		return nil, utils.ErrInvalidCredentials
	}
	if !user.IsActive {
		log.Warn().Str("email", user.Email).Msg("Account is inactive")
		return nil, utils.ErrAccountInactive
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	}

	var store *models.Store
	if user.StoreID != nil {
		if store, err = s.stores.GetStore(ctx, *user.StoreID); err != nil {
			return nil, notFound(err, utils.ErrStoreNotFound)
		}
	}

	log.Info().Int64("user_id", user.ID).Msg("Login successful")
	return s.issue(user, store)
}

// Me returns the current account.
func (s *AuthService) Me(ctx context.Context, actor *models.Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, utils.ErrUserNotFound)
	}
	return user, nil
}

// CreateManager adds a sub-location manager. Only the owner of the parent
// store, or an admin, may do so.
func (s *AuthService) CreateManager(ctx context.Context, actor *models.Actor, req CreateManagerRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, utils.NewValidationError("password", "must be at least 8 characters")
	}

	loc, err := s.stores.GetSubLocation(ctx, req.SubLocationID)
	if err != nil {
		return nil, notFound(err, utils.ErrSubLocationNotFound)
	}
	if !actor.IsAdmin() && (actor.Role != models.RoleStoreOwner || actor.StoreID == nil || *actor.StoreID != loc.StoreID) {
		return nil, utils.ErrSubLocationNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:         email,
		PasswordHash:  string(hash),
		Name:          strings.TrimSpace(req.Name),
		Role:          models.RoleSubLocationManager,
		SubLocationID: &loc.ID,
		IsActive:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Int64("sub_location_id", loc.ID).Msg("Sub-location manager created")
	return user, nil
}

func (s *AuthService) issue(user *models.User, store *models.Store) (*AuthResult, error) {
	token, expires, err := s.jwt.GenerateJWT(utils.JWTClaims{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          string(user.Role),
		StoreID:       user.StoreID,
		SubLocationID: user.SubLocationID,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: user, Store: store}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return "", utils.NewValidationError("email", "must be a valid email address")
	}
	return email, nil
}
