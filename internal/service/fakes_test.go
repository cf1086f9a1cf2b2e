package service

import (
	"context"
	"sync"
	"time"

	"paywall/internal/model"
)

// memStore is an in-memory account table shared by the account and
// subscription repository fakes.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account

	findErr  error
	applyErr error
	setErr   error

	lookups int
	writes  int
}

func newMemStore(accounts ...*model.Account) *memStore {
	s := &memStore{accounts: map[string]*model.Account{}}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *memStore) get(id string) model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.accounts[id]
}

type fakeAccountRepo struct{ *memStore }

func (r fakeAccountRepo) FindByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r fakeAccountRepo) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAccountRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if a.StripeCustomerID != nil && *a.StripeCustomerID == customerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAccountRepo) UpsertByEmail(_ context.Context, p model.Profile) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == p.Email {
			if p.Name != "" {
				a.Name = &p.Name
			}
			cp := *a
			return &cp, nil
		}
	}
	a := &model.Account{ID: "acc-" + p.Email, Email: p.Email, SubscriptionStatus: model.StatusInactive}
	if p.Name != "" {
		a.Name = &p.Name
	}
	r.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r fakeAccountRepo) SetStripeCustomerID(_ context.Context, accountID, customerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return "", r.setErr
	}
	a := r.accounts[accountID]
	if a.StripeCustomerID == nil {
		a.StripeCustomerID = &customerID
	}
	return *a.StripeCustomerID, nil
}

type fakeSubscriptionRepo struct{ *memStore }

func (r fakeSubscriptionRepo) ApplyUpdate(_ context.Context, accountID string, u model.AccountUpdate, eventAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return false, r.applyErr
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return false, nil
	}
	if a.BillingEventAt != nil && a.BillingEventAt.After(eventAt) {
		return false, nil
	}
	r.writes++
	if u.Status != nil {
		a.SubscriptionStatus = *u.Status
	}
	if u.StripeSubscriptionID != nil {
		a.StripeSubscriptionID = u.StripeSubscriptionID
	}
	if u.StripePriceID != nil {
		a.StripePriceID = u.StripePriceID
	}
	if u.CurrentPeriodEnd != nil {
		a.CurrentPeriodEnd = u.CurrentPeriodEnd
	}
	at := eventAt
	a.BillingEventAt = &at
	return true, nil
}

type recordingNotifier struct {
	changes []model.StatusChange
	err     error
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, c model.StatusChange) error {
	n.changes = append(n.changes, c)
	return n.err
}

func strPtr(s string) *string { return &s }
