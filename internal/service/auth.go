package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthService struct {
	Users   UserRepo
	Tokens  TokenIssuer
	Events  EventPublisher
	Limiter LoginLimiter
}

type AuthResult struct {
	User  *models.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.Users.FindUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("register: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, &domain.ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
		}
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: pwHash,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	publish(ctx, s.Events, events.TopicUserEvents, events.Event{
		Type:   events.TypeUserRegistered,
		UserID: user.ID,
		Name:   user.Name,
	})
	l.Info("user_registered", "user_id", user.ID)

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	if s.Limiter != nil && !s.Limiter.Allow(ctx, strings.ToLower(strings.TrimSpace(req.Email))) {
		return nil, fmt.Errorf("login: %w", domain.ErrTooManyAttempts)
	}

	user, err := s.Users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}

	if !hash.CheckPassword(user.Password, req.Password) {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	publish(ctx, s.Events, events.TopicUserEvents, events.Event{
		Type:   events.TypeUserLoggedIn,
		UserID: user.ID,
	})
	l.Info("user_logged_in", "user_id", user.ID)

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.Users.FindUserByID(ctx, userID)
}
