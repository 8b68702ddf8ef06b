package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/pkg/utils"
)

// PasswordHasher hashes and checks passwords. *utils.PasswordHasher satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// msgBadCredentials is returned for every login failure so callers cannot
// tell an unknown email from a wrong password.
const msgBadCredentials = "invalid email or password"

// UserService implements registration, login and identity lookup.
type UserService struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
	now    func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(users UserStore, hasher PasswordHasher, tokens *TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates an account for email. The stored email is normalized.
func (s *UserService) Register(ctx context.Context, email, password string) (models.PublicUser, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return models.PublicUser{}, BadRequest(err.Error())
	}
	if password == "" {
		return models.PublicUser{}, BadRequest("password is required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return models.PublicUser{}, Conflict(ErrDuplicateEmail.Error())
	case !errors.Is(err, ErrNotFound):
		return models.PublicUser{}, Internal(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.PublicUser{}, Internal(err)
	}

	user, err := s.users.Create(ctx, models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, ErrDuplicateEmail) {
			return models.PublicUser{}, Conflict(ErrDuplicateEmail.Error())
		}
		return models.PublicUser{}, Internal(err)
	}

	logger.FromContext(ctx).WithField("userID", user.ID.String()).Info("user registered")
	return user.Public(), nil
}

// Login checks the credentials and returns a fresh session token. Bad
// credentials are Unauthenticated with one message for both causes.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	rlog := logger.FromContext(ctx)
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", BadRequest("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			rlog.Info("login failed: user not found")
			// Unknown emails cost one Argon2 run, same as a wrong password.
			_, _ = s.hasher.Verify(password, s.dummyDigest())
			return "", Unauthenticated(msgBadCredentials, nil)
		}
		return "", Internal(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		// An unreadable digest is a data problem, not a client one.
		return "", Internal(err)
	}
	if !ok {
		rlog.WithField("userID", user.ID.String()).Info("login failed: invalid password")
		return "", Unauthenticated(msgBadCredentials, nil)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", Internal(err)
	}
	return token, nil
}

// dummyDigest is a digest with the hasher's current cost, checked against
// when the email is unknown.
func (s *UserService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("journal-login-placeholder")
		if err == nil {
			s.dummy = d
		}
	})
	return s.dummy
}

// Me resolves the authenticated user. A user deleted after the token was
// issued is reported as Unauthenticated.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.PublicUser{}, Unauthenticated("authentication required", err)
		}
		return models.PublicUser{}, Internal(err)
	}
	return user.Public(), nil
}

// Authenticate verifies a bearer token and returns its user id.
func (s *UserService) Authenticate(token string) (uuid.UUID, error) {
	return s.tokens.Verify(token)
}
