// Package subscription owns the transition of a user's access tier
// between viewer, premium and admin. Promotions happen on confirmed
// payments; demotions happen when the paid window lapses, detected
// lazily on reads and actively by the periodic sweep. Every demotion is
// a conditional store update, so redundant invocations converge on the
// same state without double side effects.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newsdeskhq/newsdesk-backend/metrics"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/payments"
)

var (
	ErrUnknownPeriod       = errors.New("unknown subscription period")
	ErrPaymentNotSucceeded = errors.New("payment not succeeded")
)

// periodDurations maps the subscription-period codes accepted by the
// API to the premium window they buy. "dev" is a short-lived window for
// exercising expiry in development.
var periodDurations = map[string]time.Duration{
	"1":   24 * time.Hour,
	"5":   5 * 24 * time.Hour,
	"10":  10 * 24 * time.Hour,
	"dev": time.Minute,
}

func PeriodDuration(code string) (time.Duration, error) {
	d, ok := periodDurations[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, code)
	}
	return d, nil
}

// ReconcileExpiry is the single decision point for demotion, shared by
// every lazy call site. The store-side sweep filter mirrors it exactly:
// premium with an expiry at or before now means viewer.
func ReconcileExpiry(u *models.User, now time.Time) (models.Role, bool) {
	if u.Role == models.RolePremium && u.SubscriptionExpiry != nil && !now.Before(*u.SubscriptionExpiry) {
		return models.RoleViewer, true
	}
	return u.Role, false
}

// UserStore is what the manager needs from persistence. The mongo
// implementation lives in the database package.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, email, name string, now time.Time) (*models.User, error)
	SetPremium(ctx context.Context, email string, expiry time.Time) error
	DemoteIfExpired(ctx context.Context, email string, now time.Time) (bool, error)
	DemoteAllExpired(ctx context.Context, now time.Time) (int64, error)
	InsertPayment(ctx context.Context, payment models.SubscriptionPayment) error
}

type Logger interface {
	Printf(format string, v ...any)
}

type Manager struct {
	users    UserStore
	payments payments.Verifier
	log      Logger
	now      func() time.Time
}

func NewManager(users UserStore, verifier payments.Verifier, log Logger) *Manager {
	return &Manager{
		users:    users,
		payments: verifier,
		log:      log,
		now:      time.Now,
	}
}

// Activate performs the viewer -> premium transition. The payment
// intent must report succeeded before anything is written; any other
// status aborts with no state change. The payment record is written
// before the role update, so a crash in between leaves an audit row
// without the promotion (at-least-once; see DESIGN.md).
func (m *Manager) Activate(ctx context.Context, email, period, intentID string, cost float64) (time.Time, error) {
	duration, err := PeriodDuration(period)
	if err != nil {
		return time.Time{}, err
	}

	status, err := m.payments.IntentStatus(ctx, intentID)
	if err != nil {
		return time.Time{}, fmt.Errorf("verify payment: %w", err)
	}
	if status != payments.StatusSucceeded {
		return time.Time{}, fmt.Errorf("%w: intent %s has status %q", ErrPaymentNotSucceeded, intentID, status)
	}

	now := m.now().UTC()
	expiry := now.Add(duration)

	if err := m.users.InsertPayment(ctx, models.SubscriptionPayment{
		UserEmail:       email,
		Period:          period,
		Cost:            cost,
		PaymentIntentID: intentID,
		ExpiresAt:       expiry,
		CreatedAt:       now,
	}); err != nil {
		return time.Time{}, err
	}

	if err := m.users.SetPremium(ctx, email, expiry); err != nil {
		return time.Time{}, err
	}

	metrics.SubscriptionsActivated.Inc()
	return expiry, nil
}

// EnsureUser handles first contact: an unseen email is created as a
// viewer, a known one comes back as stored. Either way the result goes
// through the same lazy expiry check as every other read, so an expired
// premium user is demoted before being reported.
func (m *Manager) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	user, err := m.users.Upsert(ctx, email, name, m.now().UTC())
	if err != nil {
		return nil, err
	}

	role, err := m.Reconcile(ctx, user)
	if err != nil {
		return nil, err
	}
	if role != user.Role {
		user.Role = role
		user.SubscriptionExpiry = nil
	}
	return user, nil
}

// Reconcile applies the lazy expiry check to a loaded user and returns
// the role the caller should report. Invoking it on an already-demoted
// user is a no-op: the conditional update matches nothing.
func (m *Manager) Reconcile(ctx context.Context, user *models.User) (models.Role, error) {
	now := m.now()
	role, expired := ReconcileExpiry(user, now)
	if !expired {
		return role, nil
	}

	demoted, err := m.users.DemoteIfExpired(ctx, user.Email, now)
	if err != nil {
		return user.Role, err
	}
	if demoted {
		metrics.PremiumDemotions.WithLabelValues("lazy").Inc()
	}
	return models.RoleViewer, nil
}

// SweepOnce demotes every expired premium user in one conditional batch
// update. Safe to run concurrently with the lazy checks: a user already
// demoted simply falls out of the filter.
func (m *Manager) SweepOnce(ctx context.Context) (int64, error) {
	n, err := m.users.DemoteAllExpired(ctx, m.now())
	if err != nil {
		metrics.SweepFailures.Inc()
		return 0, err
	}
	metrics.SweepRuns.Inc()
	if n > 0 {
		metrics.PremiumDemotions.WithLabelValues("sweep").Add(float64(n))
	}
	return n, nil
}

// Run executes the sweep on a fixed interval until ctx is cancelled.
// Sweep failures are logged and retried at the next tick; they never
// take the process down.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.SweepOnce(ctx)
			if err != nil {
				m.log.Printf("subscription sweep failed: %v", err)
				continue
			}
			if n > 0 {
				m.log.Printf("subscription sweep demoted %d expired premium user(s)", n)
			}
		}
	}
}
