package srvenv

import (
	"context"

	"rangeq/internal/cache"
	"rangeq/internal/database"
	"rangeq/internal/index"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	cache    *cache.Cache
	indexer  index.ProvideFn
}

func (s *SrvEnv) ProvideIndexer() index.ProvideFn {
	return s.indexer
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() *cache.Cache {
	return s.cache
}

func WithIndexer(fn index.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.indexer = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c *cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.cache != nil {
		_ = s.cache.Close()
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
