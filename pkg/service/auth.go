package service

import (
	"context"
	"errors"
	"strings"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type TokenIssuer interface {
	Issue(actor models.Actor) (string, error)
	IssueRefresh(actor models.Actor) (string, error)
	ParseRefresh(raw string) (models.Actor, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

type Session struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	cost   int
	logger *zap.Logger
}

func NewAuthService(users UserStore, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost, logger: logger.Named("auth")}
}

// Register creates a shopper or delivery account. Admin accounts cannot be
// self registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if in.Name == "" || email == "" {
		return nil, invalidInput("Name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalidInput("Password must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, invalidInput("Unknown role")
	}
	if role == models.RoleAdmin {
		return nil, forbidden("Admin accounts cannot be registered")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, &Error{Kind: ErrAlreadyExists, Message: "User already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &Error{Kind: ErrAlreadyExists, Message: "User already exists"}
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, invalidInput("Please provide email and password")
	}
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Refresh exchanges a refresh token for a new session. The role is read from
// the store so role changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, invalidInput("Refresh token is required")
	}
	actor, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.Get(ctx, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	u, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, "User not found")
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor models.Actor, name, phone string) (*models.User, error) {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if phone != "" {
		updates["phone"] = phone
	}
	if len(updates) > 0 {
		if err := s.users.UpdateProfile(ctx, actor.ID, updates); err != nil {
			return nil, orNotFound(err, "User not found")
		}
	}
	return s.Me(ctx, actor)
}

func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, current, next string) (*Session, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return nil, invalidInput("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return nil, invalidInput("Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)
	return s.session(u)
}

func (s *AuthService) AddAddress(ctx context.Context, actor models.Actor, a models.Address) ([]models.Address, error) {
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return nil, invalidInput("All fields are required")
	}
	if a.Label == "" {
		a.Label = "Home"
	}
	a.ID = 0
	a.UserID = actor.ID
	if err := s.users.AddAddress(ctx, &a); err != nil {
		return nil, err
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

// UpdateAddress overwrites the non-empty fields of one of the caller's addresses.
func (s *AuthService) UpdateAddress(ctx context.Context, actor models.Actor, addressID uint, in models.Address) ([]models.Address, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	var current *models.Address
	for i := range u.Addresses {
		if u.Addresses[i].ID == addressID {
			current = &u.Addresses[i]
		}
	}
	if current == nil {
		return nil, notFound("Address not found")
	}

	next := *current
	overwrite(&next.Label, in.Label)
	overwrite(&next.Street, in.Street)
	overwrite(&next.City, in.City)
	overwrite(&next.State, in.State)
	overwrite(&next.ZipCode, in.ZipCode)
	next.IsDefault = in.IsDefault
	if err := s.users.UpdateAddress(ctx, &next); err != nil {
		return nil, orNotFound(err, "Address not found")
	}

	if u, err = s.Me(ctx, actor); err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func (s *AuthService) DeleteAddress(ctx context.Context, actor models.Actor, addressID uint) ([]models.Address, error) {
	if err := s.users.DeleteAddress(ctx, actor.ID, addressID); err != nil {
		return nil, orNotFound(err, "Address not found")
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func (s *AuthService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, invalidInput("Unknown role")
	}
	return s.users.List(ctx, role)
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u.Actor())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(u.Actor())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, RefreshToken: refresh, User: u}, nil
}

func overwrite(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
