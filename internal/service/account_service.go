package service

import (
	"context"
	"errors"
	"strings"

	"paywall/internal/model"
	"paywall/internal/repository"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrMissingEmail    = errors.New("identity has no email")
)

type AccountService interface {
	// SignIn creates or refreshes the account for a provider identity. An
	// identity without an email is rejected.
	SignIn(ctx context.Context, p model.Profile) (*model.Account, error)
	Get(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) AccountService {
	return &accountService{accountRepo: accountRepo}
}

func (s *accountService) SignIn(ctx context.Context, p model.Profile) (*model.Account, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return nil, ErrMissingEmail
	}
	return s.accountRepo.UpsertByEmail(ctx, p)
}

func (s *accountService) Get(ctx context.Context, id string) (*model.Account, error) {
	a, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// FindByEmail returns (nil, nil) when no account has the email.
func (s *accountService) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.accountRepo.FindByEmail(ctx, email)
}
