package twofa

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

// fakeCache implements TTL semantics against a controllable clock so
// expiry can be tested without sleeping.
type fakeCache struct {
	now     time.Time
	entries map[string]fakeEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{now: time.Now(), entries: map[string]fakeEntry{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := c.entries[key]
	if !ok || !c.now.Before(e.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.entries[key] = fakeEntry{value: value, expiresAt: c.now.Add(ttl)}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeMailer struct {
	sendErr error
	lastTo  string
	bodies  []string
}

func (m *fakeMailer) SendEmail(to, _, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastTo = to
	m.bodies = append(m.bodies, body)
	return nil
}

type fakeCredentialStore struct {
	updates []map[string]interface{}
}

func (s *fakeCredentialStore) Update(_ context.Context, _ string, updates map[string]interface{}) error {
	s.updates = append(s.updates, updates)
	return nil
}

func (s *fakeCredentialStore) passwordHash() (string, bool) {
	for i := len(s.updates) - 1; i >= 0; i-- {
		if h, ok := s.updates[i]["password_hash"].(string); ok {
			return h, true
		}
	}
	return "", false
}

func testUser() *domain.User {
	return &domain.User{UserID: "u1", Username: "listener", Email: "listener@example.com"}
}

// newTestService returns a service whose code generator yields the given
// codes in order.
func newTestService(cache *fakeCache, store *fakeCredentialStore, mailer *fakeMailer, codes ...string) *service {
	svc := NewService(cache, store, mailer, nil).(*service)
	i := 0
	svc.newCode = func() (string, error) {
		code := codes[i]
		i++
		return code, nil
	}
	return svc
}

func TestVerifyChallenge_SingleUse(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	mailer := &fakeMailer{}
	svc := newTestService(cache, &fakeCredentialStore{}, mailer, "042731")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))
	assert.Equal(t, "listener@example.com", mailer.lastTo)
	assert.Contains(t, mailer.bodies[0], "042731")

	ok, err := svc.VerifyChallenge(ctx, "u1", "042731")
	require.NoError(t, err)
	assert.True(t, ok)

	purpose, verified, err := svc.IsVerified(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, verified)
	assert.Equal(t, domain.PurposeLogin, purpose)

	// The code is consumed; replaying it behaves as if none was issued.
	ok, err = svc.VerifyChallenge(ctx, "u1", "042731")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyChallenge_WrongCodeRetries(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache, &fakeCredentialStore{}, &fakeMailer{}, "654321")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))

	for i := 0; i < 5; i++ {
		ok, err := svc.VerifyChallenge(ctx, "u1", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// Wrong attempts do not consume the challenge.
	ok, err := svc.VerifyChallenge(ctx, "u1", "654321")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyChallenge_TrimsWhitespace(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache, &fakeCredentialStore{}, &fakeMailer{}, "654321")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))

	ok, err := svc.VerifyChallenge(ctx, "u1", "  654321\n")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIssueChallenge_ReissueInvalidatesOldCode(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache, &fakeCredentialStore{}, &fakeMailer{}, "111111", "222222")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))
	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))

	ok, err := svc.VerifyChallenge(ctx, "u1", "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyChallenge(ctx, "u1", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyChallenge_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache, &fakeCredentialStore{}, &fakeMailer{}, "654321")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))

	cache.advance(5*time.Minute + time.Second)

	ok, err := svc.VerifyChallenge(ctx, "u1", "654321")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompletePasswordChange(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := &fakeCredentialStore{}
	svc := newTestService(cache, store, &fakeMailer{}, "654321")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposePasswordChange, "staged-hash"))

	// Wrong code leaves the credential untouched.
	ok, err := svc.VerifyChallenge(ctx, "u1", "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	_, updated := store.passwordHash()
	assert.False(t, updated)

	ok, err = svc.VerifyChallenge(ctx, "u1", "654321")
	require.NoError(t, err)
	require.True(t, ok)

	applied, err := svc.CompletePasswordChange(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, applied)

	hash, updated := store.passwordHash()
	require.True(t, updated)
	assert.Equal(t, "staged-hash", hash)

	// The staged hash is single-use too.
	applied, err = svc.CompletePasswordChange(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCompletePasswordChange_NeverVerified(t *testing.T) {
	ctx := context.Background()
	store := &fakeCredentialStore{}
	svc := newTestService(newFakeCache(), store, &fakeMailer{}, "654321")

	applied, err := svc.CompletePasswordChange(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, store.updates)
}

func TestCompletePasswordChange_StagedHashExpired(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := &fakeCredentialStore{}
	svc := newTestService(cache, store, &fakeMailer{}, "654321")

	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposePasswordChange, "staged-hash"))

	cache.advance(5*time.Minute + time.Second)

	applied, err := svc.CompletePasswordChange(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, store.updates)
}

func TestIssueChallenge_MailerFailure(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	mailer := &fakeMailer{sendErr: errors.New("smtp unreachable")}
	svc := newTestService(cache, &fakeCredentialStore{}, mailer, "111111", "222222")

	err := svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, "")
	require.Error(t, err)

	// The challenge was written before the send failed; reissuing
	// overwrites it, so recovery is just another IssueChallenge call.
	mailer.sendErr = nil
	require.NoError(t, svc.IssueChallenge(ctx, testUser(), domain.PurposeLogin, ""))

	ok, err := svc.VerifyChallenge(ctx, "u1", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
