package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

var (
	ErrMissingCredentials     = errors.New("username and password are required")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrMissingFields          = errors.New("current and new password are required")
	ErrAdminNotFound          = errors.New("admin not found")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

// CredentialStore is the slice of the record store the session flows use.
type CredentialStore interface {
	FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	FindAdminByID(ctx context.Context, id int64) (*model.Admin, error)
	UpdateAdminPasswordHash(ctx context.Context, id int64, hash string) error
	AppendActivity(ctx context.Context, typ, description string, actorID *int64) (*model.Activity, error)
}

// SessionService implements login, identity lookup and password change.
type SessionService struct {
	store  CredentialStore
	tokens *TokenService
	logger *slog.Logger

	// dummyHash is compared against when the username is unknown so that
	// both failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewSessionService creates a SessionService backed by store that signs
// tokens with tokens. It panics if the internal dummy hash cannot be built,
// which only happens when bcrypt itself is broken.
func NewSessionService(store CredentialStore, tokens *TokenService, logger *slog.Logger) *SessionService {
	dummy, err := HashPassword("schoolcms-dummy-password")
	if err != nil {
		panic(fmt.Sprintf("service: build dummy hash: %v", err))
	}
	return &SessionService{
		store:     store,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string             `json:"token"`
	Admin model.AdminProfile `json:"admin"`
}

// Login checks the credentials, issues a token and records a login activity.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	admin, err := s.store.FindAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CheckPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}

	if !CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(Identity{AdminID: admin.ID, Username: admin.Username})
	if err != nil {
		return nil, err
	}

	if err := s.audit(ctx, model.ActivityLogin, fmt.Sprintf("admin %s logged in", admin.Username), admin.ID); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Admin: admin.Profile()}, nil
}

// WhoAmI returns the profile of the authenticated administrator.
func (s *SessionService) WhoAmI(ctx context.Context, id Identity) (*model.AdminProfile, error) {
	admin, err := s.store.FindAdminByID(ctx, id.AdminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	p := admin.Profile()
	return &p, nil
}

// ChangePassword replaces the administrator's password after checking the
// current one. Tokens issued before the change remain valid until they expire.
func (s *SessionService) ChangePassword(ctx context.Context, id Identity, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingFields
	}

	admin, err := s.store.FindAdminByID(ctx, id.AdminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("find admin: %w", err)
	}

	if !CheckPassword(admin.PasswordHash, current) {
		return ErrInvalidCurrentPassword
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAdminPasswordHash(ctx, admin.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	return s.audit(ctx, model.ActivityPasswordChange, fmt.Sprintf("admin %s changed password", admin.Username), admin.ID)
}

// audit appends an activity record. The primary write has already been
// applied when it runs, so a failure here leaves state changed but
// unrecorded; the caller still reports it.
func (s *SessionService) audit(ctx context.Context, typ, description string, actorID int64) error {
	if _, err := s.store.AppendActivity(ctx, typ, description, &actorID); err != nil {
		s.logger.Error("failed to record activity", "type", typ, "admin_id", actorID, "error", err)
		return fmt.Errorf("record %s activity: %w", typ, err)
	}
	return nil
}
