package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidToken       = "invalid_token"
)

type JWTClaims struct {
	Role      string `json:"role"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *types.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	EnsureAdmin(ctx context.Context, name, email, password string) (*types.User, bool, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey     string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	AllowAdminSignup bool
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	tx            repos.TxRunner
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	cfg           AuthConfig
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	tx repos.TxRunner,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	cfg AuthConfig,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		tx:            tx,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	return as.register(ctx, in, as.cfg.AllowAdminSignup)
}

// EnsureAdmin creates the admin account for provisioning tools. An existing
// account with that email is returned unchanged with created=false.
func (as *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*types.User, bool, error) {
	existing, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}
	u, err := as.register(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: types.RoleAdmin}, true)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (as *authService) register(ctx context.Context, in RegisterInput, allowAdmin bool) (*types.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = types.RoleStudent
	}
	switch {
	case name == "":
		return nil, apierr.Validation(CodeInvalidInput, errors.New("name is required"))
	case !validEmail(email):
		return nil, apierr.Validation(CodeInvalidInput, errors.New("a valid email is required"))
	case len(in.Password) < 6:
		return nil, apierr.Validation(CodeInvalidInput, errors.New("password must be at least 6 characters"))
	case role != types.RoleStudent && role != types.RoleAdmin:
		return nil, apierr.Validation(CodeInvalidInput, fmt.Errorf("unknown role %q", role))
	case role == types.RoleAdmin && !allowAdmin:
		return nil, apierr.Forbidden(CodeForbidden, errors.New("admin accounts cannot be self-registered"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check user email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict(CodeEmailTaken, errors.New("email already registered"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := as.userRepo.Create(dbc, []*types.User{{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
	}})
	if err != nil {
		return nil, mapRepoErr(err, CodeEmailTaken)
	}
	u := created[0]
	as.log.Info("User registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.Validation(CodeInvalidInput, errors.New("email and password are required"))
	}
	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, invalidCredentials()
	}
	u := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	var pair *TokenPair
	err = as.tx.InTx(ctx, func(dbc dbctx.Context) error {
		p, err := as.issue(dbc, u)
		pair = p
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User logged in", "user_id", u.ID)
	return pair, nil
}

// Refresh rotates the session: the old token row is removed and a new one
// issued in the same transaction.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Validation(CodeInvalidInput, errors.New("refresh token is required"))
	}
	var (
		pair    *TokenPair
		expired bool
	)
	err := as.tx.InTx(ctx, func(dbc dbctx.Context) error {
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 {
			return invalidToken("unknown refresh token")
		}
		existing := found[0]
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("remove old token: %w", err)
		}
		// Commit the delete of an expired session; the caller still fails.
		if existing.Expired(as.now()) {
			expired = true
			return nil
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return invalidToken("no user for refresh token")
		}
		pair, err = as.issue(dbc, users[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, invalidToken("refresh token expired")
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if rd.SessionID == uuid.Nil {
		return invalidToken("token carries no session")
	}
	if err := as.userTokenRepo.FullDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.SessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

// SetContextFromToken validates an access token and attaches the caller to
// ctx. An empty token leaves ctx untouched.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, invalidToken(fmt.Sprintf("parse token: %v", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, invalidToken("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, invalidToken("invalid user id in token")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return ctx, invalidToken("invalid session id in token")
	}
	sessions, err := as.userTokenRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{sessionID})
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if len(sessions) == 0 || sessions[0].AccessToken != tokenString {
		return ctx, invalidToken("session is no longer active")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   sessionID,
		Email:       claims.Email,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.cfg.AccessTTL
}

// issue creates a session row for u and returns its tokens.
func (as *authService) issue(dbc dbctx.Context, u *types.User) (*TokenPair, error) {
	sessionID := uuid.New()
	access, err := as.generateAccessToken(u, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		ID:           sessionID,
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    as.now().Add(as.cfg.RefreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(as.cfg.AccessTTL.Seconds()),
		User:         u,
	}, nil
}

func (as *authService) generateAccessToken(u *types.User, sessionID uuid.UUID) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role:      u.Role,
		Email:     u.Email,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecretKey))
}

func invalidCredentials() error {
	return apierr.Unauthorized(CodeInvalidCredentials, errors.New("invalid email or password"))
}

func invalidToken(msg string) error {
	return apierr.Unauthorized(CodeInvalidToken, errors.New(msg))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
