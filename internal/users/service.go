package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
	// bcrypt rejects longer inputs
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var passwordTooLong = apperr.FieldError{Field: "password", Message: "Password must be at most 72 bytes"}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type Service struct {
	Repo   Repo
	Tokens TokenIssuer

	bcryptCost int
	now        func() time.Time
}

func NewService(repo Repo, tokens TokenIssuer) *Service {
	return &Service{
		Repo:       repo,
		Tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	var fields []apperr.FieldError
	if utf8.RuneCountInString(name) < minNameLen {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	}
	if !emailPattern.MatchString(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	} else if len(in.Password) > maxPasswordBytes {
		fields = append(fields, passwordTooLong)
	}
	if len(fields) > 0 {
		return AuthResult{}, apperr.Validation(fields[0].Message, fields...)
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Plan:         PlanFree,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}
	telemetry.Info("user.registered", map[string]any{"user_id": user.ID})
	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)

	var fields []apperr.FieldError
	if !emailPattern.MatchString(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if in.Password == "" {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password is required"})
	} else if len(in.Password) > maxPasswordBytes {
		fields = append(fields, passwordTooLong)
	}
	if len(fields) > 0 {
		return AuthResult{}, apperr.Validation(fields[0].Message, fields...)
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, apperr.Auth("invalid credentials")
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" {
		return AuthResult{}, apperr.Auth("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthResult{}, apperr.Auth("invalid credentials")
	}
	return s.issue(user)
}

// SignInExternal finds the account for a verified external identity, creating it on first sign-in.
func (s *Service) SignInExternal(ctx context.Context, name, email string) (AuthResult, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return AuthResult{}, apperr.Auth("external identity has no usable email")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLen {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Plan:      PlanFree,
		CreatedAt: s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			return AuthResult{}, err
		}
		// lost a race with a concurrent first sign-in
		if user, err = s.Repo.GetByEmail(ctx, email); err != nil {
			return AuthResult{}, fmt.Errorf("lookup user: %w", err)
		}
	} else {
		telemetry.Info("user.registered", map[string]any{"user_id": user.ID, "provider": "google"})
	}
	return s.issue(user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.Auth("missing or invalid token")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) issue(user User) (AuthResult, error) {
	token, err := s.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: user.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
