package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thmjiya022/nnhair/internal/common"
)

type memStore struct {
	users    map[uuid.UUID]Credential
	byEmail  map[string]uuid.UUID
	sessions map[string]Session
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]Credential{},
		byEmail:  map[string]uuid.UUID{},
		sessions: map[string]Session{},
	}
}

func (m *memStore) CreateUser(_ context.Context, name, email, passwordHash string, roles []string) (User, error) {
	if _, exists := m.byEmail[email]; exists {
		return User{}, ErrEmailTaken
	}
	now := time.Now()
	cred := Credential{
		User:         User{ID: uuid.New(), Name: name, Email: email, Roles: roles, CreatedAt: now, UpdatedAt: now},
		PasswordHash: passwordHash,
	}
	m.users[cred.ID] = cred
	m.byEmail[email] = cred.ID
	return cred.User, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (Credential, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return Credential{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (User, error) {
	cred, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cred.User, nil
}

func (m *memStore) CreateSession(_ context.Context, s Session) error {
	m.sessions[s.RefreshTokenHash] = s
	return nil
}

func (m *memStore) GetSessionByToken(_ context.Context, hash string) (Session, error) {
	s, ok := m.sessions[hash]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) RotateSession(_ context.Context, id uuid.UUID, newHash string, expiresAt time.Time) error {
	for hash, s := range m.sessions {
		if s.ID == id {
			delete(m.sessions, hash)
			s.RefreshTokenHash = newHash
			s.ExpiresAt = expiresAt
			m.sessions[newHash] = s
			return nil
		}
	}
	return ErrSessionNotFound
}

func (m *memStore) DeleteSessionByToken(_ context.Context, hash string) error {
	if _, ok := m.sessions[hash]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, hash)
	return nil
}

func (m *memStore) DeleteSessionsByUser(_ context.Context, userID uuid.UUID) error {
	for hash, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, hash)
		}
	}
	return nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-test-secret"})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "Thandi", "thandi@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "thandi@example.com", user.Email)
	require.Contains(t, user.Roles, "customer")

	_, err = svc.Register(context.Background(), "Thandi", "thandi@example.com", "s3cret-pass")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)

	result, err := svc.Login(context.Background(), "thandi@example.com", "s3cret-pass", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	_, err = svc.Login(context.Background(), "thandi@example.com", "wrong-pass", "", "")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Admin", "admin@example.com", "s3cret-pass")
	require.NoError(t, err)
	id := store.byEmail["admin@example.com"]
	cred := store.users[id]
	cred.Roles = []string{"customer", RoleAdmin}
	store.users[id] = cred

	result, err := svc.Login(context.Background(), "admin@example.com", "s3cret-pass", "", "")
	require.NoError(t, err)

	subject, roles, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, id.String(), subject)
	require.Contains(t, roles, RoleAdmin)

	_, _, err = svc.ParseAccessToken("not-a-token")
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Thandi", "thandi@example.com", "s3cret-pass")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	result, err := svc.Login(context.Background(), "thandi@example.com", "s3cret-pass", "", "")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, _, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Thandi", "thandi@example.com", "s3cret-pass")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "thandi@example.com", "s3cret-pass", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is no longer valid.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)

	require.NoError(t, svc.Logout(context.Background(), refreshed.RefreshToken))
	_, err = svc.Refresh(context.Background(), refreshed.RefreshToken)
	require.Error(t, err)
}

func TestRequireAdminMiddleware(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Customer", "customer@example.com", "s3cret-pass")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "customer@example.com", "s3cret-pass", "", "")
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
