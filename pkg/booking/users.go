package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/slotbook/pkg/core"
	"github.com/aretw0/slotbook/pkg/typed"
)

const minPasswordLength = 6

// Users manages accounts and login sessions.
type Users struct {
	users    *typed.Repository[userRecord]
	sessions *typed.Repository[sessionRecord]
	logger   *slog.Logger
	ttl      time.Duration
	cost     int
	clock    func() time.Time
}

func NewUsers(repo core.Repository, opts ...Option) *Users {
	o := buildOptions(opts)
	return &Users{
		users:    typed.NewRepository[userRecord](repo, core.CollectionUsers),
		sessions: typed.NewRepository[sessionRecord](repo, collectionSessions),
		logger:   o.logger,
		ttl:      o.sessionTTL,
		cost:     o.bcryptCost,
		clock:    o.clock,
	}
}

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a user with the "user" role. The email check and the
// insert happen under one store lock, so concurrent sign-ups with the same
// address cannot both succeed.
func (u *Users) Register(ctx context.Context, in RegisterInput) (User, error) {
	return u.create(ctx, in, RoleUser)
}

// EnsureAdmin creates an admin account unless the email is already
// registered. It reports whether an account was created.
func (u *Users) EnsureAdmin(ctx context.Context, in RegisterInput) (User, bool, error) {
	user, err := u.create(ctx, in, RoleAdmin)
	if errors.Is(err, ErrEmailTaken) {
		existing, _, lookupErr := u.users.FindOne(ctx, core.Where("email", normalizeEmail(in.Email)))
		if lookupErr != nil {
			return User{}, false, lookupErr
		}
		return existing.User, false, nil
	}
	return user, err == nil, err
}

func (u *Users) create(ctx context.Context, in RegisterInput, role Role) (User, error) {
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		return User{}, invalidf("invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return User{}, invalidf("password must be at least %d characters", minPasswordLength)
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" {
		return User{}, invalidf("first name is required")
	}
	if last == "" {
		return User{}, invalidf("last name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cost)
	if err != nil {
		return User{}, err
	}

	rec, created, err := u.users.CreateIfAbsent(ctx, core.Where("email", email), userRecord{
		User: User{
			Email:     email,
			FirstName: first,
			LastName:  last,
			Role:      role,
		},
		Password: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	if !created {
		return User{}, ErrEmailTaken
	}
	u.logger.Info("user registered", "id", rec.ID, "role", role)
	return rec.User, nil
}

// Login checks the credentials and opens a session.
func (u *Users) Login(ctx context.Context, email, password string) (Session, error) {
	rec, found, err := u.users.FindOne(ctx, core.Where("email", normalizeEmail(email)))
	if err != nil {
		return Session{}, err
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	expires := u.clock().UTC().Add(u.ttl)
	token := uuid.NewString()
	if _, err := u.sessions.Create(ctx, sessionRecord{
		Token:     token,
		UserID:    rec.ID,
		ExpiresAt: expires.Format(core.TimestampLayout),
	}); err != nil {
		return Session{}, err
	}

	u.logger.Debug("session opened", "user", rec.ID)
	return Session{Token: token, User: rec.User, ExpiresAt: expires}, nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed on sight.
func (u *Users) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrSessionNotFound
	}
	sess, found, err := u.sessions.FindOne(ctx, core.Where("token", token))
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, ErrSessionNotFound
	}

	expires, err := time.Parse(time.RFC3339Nano, sess.ExpiresAt)
	if err != nil || !u.clock().Before(expires) {
		if _, err := u.sessions.Delete(ctx, sess.ID); err != nil {
			return User{}, err
		}
		return User{}, ErrSessionExpired
	}

	rec, found, err := u.users.Get(ctx, sess.UserID)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, ErrSessionNotFound
	}
	return rec.User, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (u *Users) Logout(ctx context.Context, token string) error {
	sess, found, err := u.sessions.FindOne(ctx, core.Where("token", token))
	if err != nil || !found {
		return err
	}
	_, err = u.sessions.Delete(ctx, sess.ID)
	return err
}

func (u *Users) Get(ctx context.Context, id core.ID) (User, error) {
	rec, found, err := u.users.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, ErrUserNotFound
	}
	return rec.User, nil
}

func (u *Users) List(ctx context.Context) ([]User, error) {
	recs, err := u.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.User)
	}
	return out, nil
}

func (u *Users) UpdateRole(ctx context.Context, id core.ID, role Role) (User, error) {
	if !role.Valid() {
		return User{}, invalidf("invalid role %q", role)
	}
	rec, found, err := u.users.Update(ctx, id, core.Record{"role": string(role)})
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, ErrUserNotFound
	}
	u.logger.Info("user role changed", "id", id, "role", role)
	return rec.User, nil
}

// Delete removes the user and any sessions they still hold.
func (u *Users) Delete(ctx context.Context, id core.ID) error {
	found, err := u.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	sessions, err := u.sessions.FindMany(ctx, core.Where("userId", id))
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if _, err := u.sessions.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	u.logger.Info("user deleted", "id", id)
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
