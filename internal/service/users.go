package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type UserService struct {
	Repo      *repo.GormRepo
	Events    events.Publisher
	JWTSecret []byte
	TokenTTL  time.Duration
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, v forms.Values) (*models.User, error) {
	if err := forms.Register.Validate(v); err != nil {
		return nil, invalid(err)
	}
	email := strings.ToLower(strings.TrimSpace(v.Get("email")))
	if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", email, ErrConflict)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(v.Get("password"))
	if err != nil {
		return nil, err
	}
	u := models.User{
		FullName:     strings.TrimSpace(v.Get("fullName")),
		Email:        email,
		PhoneNumber:  strings.TrimSpace(v.Get("phoneNumber")),
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, &u); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(u.ID), 10), events.Event{
		"type":   "user_registered",
		"userID": u.ID,
	})
	return &u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := forms.Login.Validate(forms.Values{"email": {email}, "password": {password}}); err != nil {
		return nil, invalid(err)
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if repo.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := tokens.SignAccessToken(u.ID, u.Email, u.Role, s.TokenTTL, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// CurrentRole reads the stored role, which may differ from the one in an
// access token issued earlier.
func (s *UserService) CurrentRole(ctx context.Context, id uint) (string, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

// UpdateUser changes name, phone and role. The last admin cannot be demoted.
func (s *UserService) UpdateUser(ctx context.Context, id uint, v forms.Values) (*models.User, error) {
	if err := forms.UpdateUser.Validate(v); err != nil {
		return nil, invalid(err)
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if name := strings.TrimSpace(v.Get("fullName")); name != "" {
		fields["full_name"] = name
	}
	if _, ok := v["phoneNumber"]; ok {
		fields["phone_number"] = strings.TrimSpace(v.Get("phoneNumber"))
	}
	if role := strings.ToLower(strings.TrimSpace(v.Get("role"))); role != "" && role != u.Role {
		if u.Role == models.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return nil, err
			}
		}
		fields["role"] = role
	}
	if len(fields) == 0 {
		return u, nil
	}

	updated, err := s.Repo.UpdateUser(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if actor.UserID == id {
		return fmt.Errorf("cannot delete own account: %w", ErrConflict)
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return notFound(err, "user")
	}
	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(id), 10), events.Event{
		"type":   "user_deleted",
		"userID": id,
	})
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.Repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return fmt.Errorf("at least one admin must remain: %w", ErrConflict)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account when it is missing.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.Repo.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !repo.IsNotFound(err) {
		return false, err
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	u := models.User{FullName: "Administrator", Email: email, PasswordHash: pwHash, Role: models.RoleAdmin}
	if err := s.Repo.CreateUser(ctx, &u); err != nil {
		return false, err
	}
	return true, nil
}
