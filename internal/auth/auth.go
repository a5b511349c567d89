// Package auth registers users and checks their passwords. Passwords are
// stored only as bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// compareHashAndPassword is swapped out in tests.
var compareHashAndPassword = bcrypt.CompareHashAndPassword

// dummyHashes caches, per cost, a hash compared against when the email is
// unknown so that both no-match paths pay for one bcrypt comparison.
var dummyHashes sync.Map

// Auth is bound to one storage session and is cheap to build per request.
type Auth struct {
	db userKeeper

	// bcryptCost is the work factor passed to bcrypt.GenerateFromPassword.
	bcryptCost int
}

func New(db userKeeper, bcryptCost int) *Auth {
	return &Auth{
		db:         db,
		bcryptCost: bcryptCost,
	}
}

// CreateUser hashes password and stores a new active user. Storage errors,
// including duplicate email or username, are returned unchanged.
func (a *Auth) CreateUser(ctx context.Context, email, password, username string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return nil, err
	}

	usr := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := a.db.CreateUser(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// AuthenticateUser returns the user whose email and password match, or nil
// if either is wrong. The two failure cases are indistinguishable, and both
// run one bcrypt comparison.
// A non-nil error means the lookup itself failed.
func (a *Auth) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	usr, err := a.db.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		_ = passwordMatches(a.dummyHash(), password)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !passwordMatches(usr.PasswordHash, password) {
		return nil, nil
	}

	return usr, nil
}

func (a *Auth) dummyHash() string {
	if hash, ok := dummyHashes.Load(a.bcryptCost); ok {
		return hash.(string)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("docsvc-unknown-user"), a.bcryptCost)
	if err != nil {
		return ""
	}
	actual, _ := dummyHashes.LoadOrStore(a.bcryptCost, string(hash))

	return actual.(string)
}

// passwordMatches relies on bcrypt's constant-time comparison.
func passwordMatches(hash, password string) bool {
	return compareHashAndPassword([]byte(hash), []byte(password)) == nil
}
