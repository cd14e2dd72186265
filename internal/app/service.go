package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/demopw"
	"github.com/shrimpsizemoose/haksa/internal/matcher"
	"github.com/shrimpsizemoose/haksa/internal/store"
	"github.com/shrimpsizemoose/haksa/internal/view"
)

type Service struct {
	Config   *Config
	Store    store.AccountStore
	Matcher  *matcher.Matcher
	Deriver  *demopw.Deriver
	Limiter  *Limiter
	Sessions *Sessions
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	limiter, err := NewLimiter(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init rate limiter: %w", err)
	}

	service, err := NewServiceWith(config, store, limiter)
	if err != nil {
		store.Close()
		limiter.Close()
		return nil, err
	}
	return service, nil
}

// NewServiceWith wires a service around an already opened store.
func NewServiceWith(config *Config, store store.AccountStore, limiter *Limiter) (*Service, error) {
	variant, err := matcher.ParseVariant(config.Lookup.Variant)
	if err != nil {
		return nil, err
	}

	s := &Service{
		Config:  config,
		Store:   store,
		Matcher: matcher.New(store, variant),
		Limiter: limiter,
	}
	if err := s.checkReachable(context.Background()); err != nil {
		return nil, err
	}
	if variant == matcher.VariantDemo {
		s.Deriver = demopw.New(
			config.DemoPassword.Tag,
			config.DemoPassword.Separator,
			config.DemoPassword.Prefix,
			config.DemoPassword.Length,
		)
	}
	s.Sessions = NewSessions(
		config.Session.MaxSessions,
		time.Duration(config.Session.IdleTTLSeconds)*time.Second,
		s.NewController,
	)

	return s, nil
}

// checkReachable refuses an account list the configured variant can never
// match, e.g. four digit student numbers under the demo variant.
func (s *Service) checkReachable(ctx context.Context) error {
	accounts, err := s.Store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	reachable := 0
	for _, a := range accounts {
		if s.Matcher.Reachable(a) {
			reachable++
		}
	}
	if reachable == 0 {
		return fmt.Errorf("none of %d accounts can be matched with variant %q", len(accounts), s.Matcher.Variant())
	}
	if unreachable := len(accounts) - reachable; unreachable > 0 {
		logger.Info.Printf("%d of %d accounts can never match with variant %s", unreachable, len(accounts), s.Matcher.Variant())
	}
	return nil
}

// NewController returns a fresh Idle view bound to the service's matcher.
func (s *Service) NewController() *view.Controller {
	if s.Deriver == nil {
		return view.NewController(s.Matcher, nil)
	}
	return view.NewController(s.Matcher, s.Deriver)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Limiter != nil {
		if err := s.Limiter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("limiter: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
