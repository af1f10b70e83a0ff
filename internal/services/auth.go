package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/types"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)

	if err := validateRegistration(user); err != nil {
		return apierr.Validation(err)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return apierr.Validation(fmt.Errorf("email already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)

	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.ID = uuid.New()
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func validateRegistration(user *types.User) error {
	if user.Email == "" {
		return fmt.Errorf("email required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return fmt.Errorf("invalid email")
	}
	if len(user.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if user.Name == "" {
		return fmt.Errorf("name required")
	}
	if user.HouseholdSize < 1 {
		user.HouseholdSize = 1
	}
	if user.Lifestyle == "" {
		user.Lifestyle = types.LifestyleModerate
	}
	if !user.Lifestyle.Valid() {
		return fmt.Errorf("invalid lifestyle %q", user.Lifestyle)
	}
	return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", apierr.Validation(fmt.Errorf("email and password required"))
	}

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 {
		return "", "", apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	var accessToken, refreshToken string
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, err := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
		if err != nil {
			return fmt.Errorf("check user tokens: %w", err)
		}
		if len(foundTokens) > 0 {
			if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
				return fmt.Errorf("delete stale user tokens: %w", err)
			}
		}

		tok, err := as.generateAccessToken(user)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return "", "", txErr
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", apierr.Unauthorized(fmt.Errorf("no refresh token in request context"))
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, err := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if err != nil {
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if len(foundTokens) == 0 {
			return apierr.Unauthorized(fmt.Errorf("unknown refresh token"))
		}
		existing := foundTokens[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existing}); err != nil {
				return fmt.Errorf("delete expired refresh token: %w", err)
			}
			return apierr.Unauthorized(fmt.Errorf("refresh token expired"))
		}

		users, err := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return apierr.NotFound("user")
		}
		user := users[0]

		tok, err := as.generateAccessToken(user)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		newUserToken := types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existing}); err != nil {
			return fmt.Errorf("remove old refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized(fmt.Errorf("no access token in request context"))
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, err := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
		if err != nil {
			return fmt.Errorf("find user token: %w", err)
		}
		if len(foundTokens) == 0 {
			return nil
		}
		if err := as.userTokenRepo.FullDeleteByTokens(ctx, tx, foundTokens); err != nil {
			return fmt.Errorf("delete user token: %w", err)
		}
		return nil
	})
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the bearer token and installs the request
// data used by downstream services.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}

	var refreshToken string
	foundTokens, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("fetch user token: %w", err)
	}
	if len(foundTokens) > 0 {
		refreshToken = foundTokens[0].RefreshToken
	}

	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: refreshToken,
		UserID:       userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
