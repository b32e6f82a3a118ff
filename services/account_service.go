package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yotereparo-backend/errs"
	"yotereparo-backend/models"
	"yotereparo-backend/utils"
)

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

type Registration struct {
	Username string
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}

// ProfileUpdate holds the account fields an account may change itself.
type ProfileUpdate struct {
	Name  string
	Phone string
}

// Session is the result of a successful register or login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AccountService registers accounts and authenticates them.
type AccountService struct {
	accounts   AccountStore
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time
	log        zerolog.Logger
}

func NewAccountService(accounts AccountStore, tokens TokenIssuer, bcryptCost int, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts:   accounts,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
		log:        log.With().Str("component", "account_service").Logger(),
	}
}

func (s *AccountService) Register(ctx context.Context, reg Registration) (*Session, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Phone = utils.NormalizePhone(strings.TrimSpace(reg.Phone))
	if reg.Role == "" {
		reg.Role = models.RoleClient
	}

	violations := phoneViolations(reg.Phone)
	if reg.Role != models.RoleProvider && reg.Role != models.RoleClient {
		violations = append(violations, errs.Violation{Field: "role", Code: errs.UnknownReference})
	}
	if err := errs.NewValidationFailure(violations); err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByUsernameOrEmail(ctx, reg.Username, reg.Email)
	if err != nil {
		return nil, errs.Internal("register", fmt.Errorf("check existing account: %w", err))
	}
	if exists {
		return nil, errs.NewConflict("account", "username or email already registered")
	}

	hash, err := utils.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, errs.Internal("register", fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Username: reg.Username,
		Email:    reg.Email,
		Password: hash,
		Name:     strings.TrimSpace(reg.Name),
		Phone:    reg.Phone,
		Role:     reg.Role,
		IsActive: true,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return nil, errs.Internal("register", fmt.Errorf("create account: %w", err))
	}

	s.log.Info().Stringer("account", user.ID).Str("role", user.Role).Msg("Account registered")
	return s.session(user)
}

// Login authenticates identifier (username or email) and password. Unknown
// accounts, inactive accounts and wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, found, err := s.accounts.FindByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, errs.Internal("login", fmt.Errorf("find account: %w", err))
	}
	if !found || !user.IsActive || !utils.CheckPasswordHash(password, user.Password) {
		s.log.Info().Str("identifier", identifier).Msg("Login rejected")
		return nil, errs.NewInvalidCredentials()
	}

	now := s.now()
	if err := s.accounts.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Stringer("account", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLogin = &now
	}
	return s.session(user)
}

// Me returns the account behind an authenticated request.
func (s *AccountService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, found, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Internal("me", fmt.Errorf("find account: %w", err))
	}
	if !found {
		return nil, errs.NewNotFound("account", id)
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error) {
	name := strings.TrimSpace(update.Name)
	phone := utils.NormalizePhone(strings.TrimSpace(update.Phone))

	violations := phoneViolations(phone)
	if name == "" {
		violations = append([]errs.Violation{{Field: "name", Code: errs.Missing}}, violations...)
	}
	if err := errs.NewValidationFailure(violations); err != nil {
		return nil, err
	}

	found, err := s.accounts.UpdateProfile(ctx, id, name, phone)
	if err != nil {
		return nil, errs.Internal("update profile", fmt.Errorf("update account %s: %w", id, err))
	}
	if !found {
		return nil, errs.NewNotFound("account", id)
	}

	s.log.Info().Stringer("account", id).Msg("Profile updated")
	return s.Me(ctx, id)
}

func phoneViolations(phone string) []errs.Violation {
	if phone != "" && !utils.ValidatePhone(phone) {
		return []errs.Violation{{Field: "phone", Code: errs.OutOfRange}}
	}
	return nil
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, errs.Internal("issue token", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}
