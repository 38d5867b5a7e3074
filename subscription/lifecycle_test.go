package subscription

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users      map[string]*models.User
	payments   []models.SubscriptionPayment
	writes     int
	demoteErr  error
	premiumErr error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	return u, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, email, name string, now time.Time) (*models.User, error) {
	if f.premiumErr != nil {
		return nil, f.premiumErr
	}
	if u, ok := f.users[email]; ok {
		// Stored document comes back as decoded, not as the live copy.
		existing := *u
		return &existing, nil
	}
	u := &models.User{Email: email, Name: name, Role: models.RoleViewer, CreatedAt: now}
	f.users[email] = u
	f.writes++
	created := *u
	return &created, nil
}

func (f *fakeUserStore) SetPremium(_ context.Context, email string, expiry time.Time) error {
	if f.premiumErr != nil {
		return f.premiumErr
	}
	u, ok := f.users[email]
	if !ok {
		return fmt.Errorf("no user with email %s", email)
	}
	u.Role = models.RolePremium
	u.SubscriptionExpiry = &expiry
	f.writes++
	return nil
}

func (f *fakeUserStore) DemoteIfExpired(_ context.Context, email string, now time.Time) (bool, error) {
	if f.demoteErr != nil {
		return false, f.demoteErr
	}
	u, ok := f.users[email]
	if !ok || u.Role != models.RolePremium || u.SubscriptionExpiry == nil || now.Before(*u.SubscriptionExpiry) {
		return false, nil
	}
	u.Role = models.RoleViewer
	u.SubscriptionExpiry = nil
	f.writes++
	return true, nil
}

func (f *fakeUserStore) DemoteAllExpired(_ context.Context, now time.Time) (int64, error) {
	if f.demoteErr != nil {
		return 0, f.demoteErr
	}
	var n int64
	for _, u := range f.users {
		if u.Role == models.RolePremium && u.SubscriptionExpiry != nil && !now.Before(*u.SubscriptionExpiry) {
			u.Role = models.RoleViewer
			u.SubscriptionExpiry = nil
			f.writes++
			n++
		}
	}
	return n, nil
}

func (f *fakeUserStore) InsertPayment(_ context.Context, payment models.SubscriptionPayment) error {
	f.payments = append(f.payments, payment)
	return nil
}

type fakeVerifier struct {
	status string
	err    error
	calls  int
}

func (f *fakeVerifier) IntentStatus(context.Context, string) (string, error) {
	f.calls++
	return f.status, f.err
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestManager(store *fakeUserStore, verifier *fakeVerifier, at time.Time) *Manager {
	m := NewManager(store, verifier, &recordingLogger{})
	m.now = fixedClock(at)
	return m
}

func premiumUser(email string, expiry time.Time) *models.User {
	return &models.User{
		Email:              email,
		Role:               models.RolePremium,
		SubscriptionExpiry: &expiry,
	}
}

func TestPeriodDuration(t *testing.T) {
	cases := []struct {
		code string
		want time.Duration
	}{
		{"1", 24 * time.Hour},
		{"5", 5 * 24 * time.Hour},
		{"10", 10 * 24 * time.Hour},
		{"dev", time.Minute},
	}
	for _, tc := range cases {
		d, err := PeriodDuration(tc.code)
		require.NoError(t, err, "code %q", tc.code)
		assert.Equal(t, tc.want, d, "code %q", tc.code)
	}

	_, err := PeriodDuration("30")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
	_, err = PeriodDuration("")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestReconcileExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name        string
		user        *models.User
		wantRole    models.Role
		wantExpired bool
	}{
		{"premium still inside window", premiumUser("a@x.com", future), models.RolePremium, false},
		{"premium past expiry", premiumUser("a@x.com", past), models.RoleViewer, true},
		{"premium expiring exactly now", premiumUser("a@x.com", now), models.RoleViewer, true},
		{"viewer untouched", &models.User{Email: "v@x.com", Role: models.RoleViewer}, models.RoleViewer, false},
		{"admin untouched", &models.User{Email: "adm@x.com", Role: models.RoleAdmin}, models.RoleAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			role, expired := ReconcileExpiry(tc.user, now)
			assert.Equal(t, tc.wantRole, role)
			assert.Equal(t, tc.wantExpired, expired)
		})
	}
}

func TestActivatePromotesOnSucceededIntent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(&models.User{Email: "a@x.com", Role: models.RoleViewer})
	verifier := &fakeVerifier{status: "succeeded"}
	m := newTestManager(store, verifier, now)

	expiry, err := m.Activate(context.Background(), "a@x.com", "5", "pi_123", 49.0)
	require.NoError(t, err)

	assert.Equal(t, now.Add(5*24*time.Hour), expiry)
	user := store.users["a@x.com"]
	assert.Equal(t, models.RolePremium, user.Role)
	require.NotNil(t, user.SubscriptionExpiry)
	assert.Equal(t, expiry, *user.SubscriptionExpiry)

	require.Len(t, store.payments, 1)
	payment := store.payments[0]
	assert.Equal(t, "a@x.com", payment.UserEmail)
	assert.Equal(t, "5", payment.Period)
	assert.Equal(t, 49.0, payment.Cost)
	assert.Equal(t, "pi_123", payment.PaymentIntentID)
	assert.Equal(t, expiry, payment.ExpiresAt)
}

func TestActivateRejectsNonSucceededIntent(t *testing.T) {
	for _, status := range []string{"requires_payment_method", "canceled", "processing", "requires_confirmation"} {
		t.Run(status, func(t *testing.T) {
			store := newFakeUserStore(&models.User{Email: "a@x.com", Role: models.RoleViewer})
			verifier := &fakeVerifier{status: status}
			m := newTestManager(store, verifier, time.Now())

			_, err := m.Activate(context.Background(), "a@x.com", "1", "pi_123", 9.0)
			assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
			assert.Equal(t, models.RoleViewer, store.users["a@x.com"].Role)
			assert.Zero(t, store.writes)
			assert.Empty(t, store.payments)
		})
	}
}

func TestActivateRejectsUnknownPeriodBeforeAnyCall(t *testing.T) {
	store := newFakeUserStore(&models.User{Email: "a@x.com", Role: models.RoleViewer})
	verifier := &fakeVerifier{status: "succeeded"}
	m := newTestManager(store, verifier, time.Now())

	_, err := m.Activate(context.Background(), "a@x.com", "42", "pi_123", 9.0)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
	assert.Zero(t, verifier.calls)
	assert.Zero(t, store.writes)
}

func TestActivateSurfacesVerifierError(t *testing.T) {
	store := newFakeUserStore(&models.User{Email: "a@x.com", Role: models.RoleViewer})
	verifier := &fakeVerifier{err: errors.New("processor unavailable")}
	m := newTestManager(store, verifier, time.Now())

	_, err := m.Activate(context.Background(), "a@x.com", "1", "pi_123", 9.0)
	require.Error(t, err)
	assert.Zero(t, store.writes)
	assert.Empty(t, store.payments)
}

func TestEnsureUserCreatesViewerOnFirstContact(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore()
	m := newTestManager(store, &fakeVerifier{}, now)

	user, err := m.EnsureUser(context.Background(), "a@x.com", "Alice")
	require.NoError(t, err)

	assert.Equal(t, models.RoleViewer, user.Role)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, now, user.CreatedAt)
	require.Contains(t, store.users, "a@x.com")
}

func TestEnsureUserReturnsExistingUnchanged(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-30 * 24 * time.Hour)
	store := newFakeUserStore(&models.User{
		Email:     "a@x.com",
		Name:      "Alice",
		Role:      models.RoleAdmin,
		CreatedAt: createdAt,
	})
	m := newTestManager(store, &fakeVerifier{}, now)

	user, err := m.EnsureUser(context.Background(), "a@x.com", "Someone Else")
	require.NoError(t, err)

	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, createdAt, user.CreatedAt, "timestamp must survive repeat calls")
	assert.Zero(t, store.writes, "fetching an existing user must not write")
}

func TestEnsureUserDemotesExpiredPremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(premiumUser("a@x.com", now.Add(-time.Minute)))
	m := newTestManager(store, &fakeVerifier{}, now)

	user, err := m.EnsureUser(context.Background(), "a@x.com", "")
	require.NoError(t, err)

	assert.Equal(t, models.RoleViewer, user.Role)
	assert.Nil(t, user.SubscriptionExpiry)
	assert.Equal(t, models.RoleViewer, store.users["a@x.com"].Role)
	assert.Nil(t, store.users["a@x.com"].SubscriptionExpiry)
	assert.Equal(t, 1, store.writes)
}

func TestEnsureUserKeepsActivePremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)
	store := newFakeUserStore(premiumUser("a@x.com", expiry))
	m := newTestManager(store, &fakeVerifier{}, now)

	user, err := m.EnsureUser(context.Background(), "a@x.com", "")
	require.NoError(t, err)

	assert.Equal(t, models.RolePremium, user.Role)
	require.NotNil(t, user.SubscriptionExpiry)
	assert.Equal(t, expiry, *user.SubscriptionExpiry)
	assert.Zero(t, store.writes)
}

func TestReconcileDemotesExpiredPremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(premiumUser("a@x.com", now.Add(-time.Minute)))
	m := newTestManager(store, &fakeVerifier{}, now)

	role, err := m.Reconcile(context.Background(), store.users["a@x.com"])
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)
	assert.Equal(t, models.RoleViewer, store.users["a@x.com"].Role)
	assert.Nil(t, store.users["a@x.com"].SubscriptionExpiry)
	assert.Equal(t, 1, store.writes)
}

func TestReconcileIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(premiumUser("a@x.com", now.Add(-time.Minute)))
	m := newTestManager(store, &fakeVerifier{}, now)

	_, err := m.Reconcile(context.Background(), store.users["a@x.com"])
	require.NoError(t, err)
	writesAfterFirst := store.writes

	role, err := m.Reconcile(context.Background(), store.users["a@x.com"])
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)
	assert.Equal(t, writesAfterFirst, store.writes, "second invocation must not write again")
}

func TestReconcileLeavesActivePremiumAlone(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(premiumUser("a@x.com", now.Add(time.Hour)))
	m := newTestManager(store, &fakeVerifier{}, now)

	role, err := m.Reconcile(context.Background(), store.users["a@x.com"])
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, role)
	assert.Zero(t, store.writes)
}

func TestSweepOnceDemotesAllExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(
		premiumUser("expired1@x.com", now.Add(-time.Hour)),
		premiumUser("expired2@x.com", now.Add(-time.Minute)),
		premiumUser("active@x.com", now.Add(time.Hour)),
		&models.User{Email: "viewer@x.com", Role: models.RoleViewer},
		&models.User{Email: "admin@x.com", Role: models.RoleAdmin},
	)
	m := newTestManager(store, &fakeVerifier{}, now)

	n, err := m.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, models.RoleViewer, store.users["expired1@x.com"].Role)
	assert.Nil(t, store.users["expired1@x.com"].SubscriptionExpiry)
	assert.Equal(t, models.RoleViewer, store.users["expired2@x.com"].Role)
	assert.Equal(t, models.RolePremium, store.users["active@x.com"].Role)
	assert.Equal(t, models.RoleAdmin, store.users["admin@x.com"].Role)

	// A second sweep over the same state matches nothing.
	n, err = m.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepAgreesWithLazyCheck(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(premiumUser("a@x.com", now.Add(-time.Second)))
	m := newTestManager(store, &fakeVerifier{}, now)

	// Lazy check demotes first; the sweep moments later must be a no-op.
	_, err := m.Reconcile(context.Background(), store.users["a@x.com"])
	require.NoError(t, err)

	n, err := m.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.writes)
}

func TestRunSwallowsSweepFailures(t *testing.T) {
	store := newFakeUserStore()
	store.demoteErr = errors.New("store unavailable")
	logger := &recordingLogger{}
	m := NewManager(store, &fakeVerifier{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}

	require.NotEmpty(t, logger.lines, "sweep failures should be logged")
	assert.Contains(t, logger.lines[0], "store unavailable")
}
