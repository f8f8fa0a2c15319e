package store

import (
	"context"

	"github.com/carebridge/userhub/internal/domain/user"
)

// Observer is implemented by the metrics registry; it times one logical
// store operation and classifies its error.
type Observer interface {
	ObserveStore(op string, fn func() error) error
}

// WithMetrics decorates a UserStore with per-operation latency and error
// accounting. A nil observer returns the store unwrapped.
func WithMetrics(inner UserStore, obs Observer) UserStore {
	if obs == nil {
		return inner
	}
	return &observedStore{inner: inner, obs: obs}
}

type observedStore struct {
	inner UserStore
	obs   Observer
}

func (s *observedStore) FindByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.obs.ObserveStore("find_by_id", func() error {
		var err error
		u, err = s.inner.FindByID(ctx, id)
		return err
	})
	return u, err
}

func (s *observedStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.obs.ObserveStore("find_by_email", func() error {
		var err error
		u, err = s.inner.FindByEmail(ctx, email)
		return err
	})
	return u, err
}

func (s *observedStore) Insert(ctx context.Context, u user.User) error {
	return s.obs.ObserveStore("insert", func() error {
		return s.inner.Insert(ctx, u)
	})
}

func (s *observedStore) Update(ctx context.Context, u user.User) error {
	return s.obs.ObserveStore("update", func() error {
		return s.inner.Update(ctx, u)
	})
}

func (s *observedStore) UpdateFn(ctx context.Context, id string, mutate func(u *user.User) error) (user.User, error) {
	var u user.User
	err := s.obs.ObserveStore("update", func() error {
		var err error
		u, err = s.inner.UpdateFn(ctx, id, mutate)
		return err
	})
	return u, err
}

func (s *observedStore) Delete(ctx context.Context, id string) error {
	return s.obs.ObserveStore("delete", func() error {
		return s.inner.Delete(ctx, id)
	})
}

func (s *observedStore) List(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := s.obs.ObserveStore("list", func() error {
		var err error
		users, err = s.inner.List(ctx)
		return err
	})
	return users, err
}
