package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/blytz-live/storefront/internal/api"
	"github.com/blytz-live/storefront/internal/platform/config"
	"github.com/blytz-live/storefront/internal/state"
)

func TestNewStateRepositoryPicksFileByDefault(t *testing.T) {
	cfg := config.StateConfig{CartPath: filepath.Join(t.TempDir(), "cart.json")}

	repo, err := newStateRepository(cfg, api.NewTokenStore(""))
	if err != nil {
		t.Fatalf("newStateRepository: %v", err)
	}
	if _, ok := repo.(*state.FileRepository); !ok {
		t.Fatalf("expected file repository, got %T", repo)
	}
}

func TestNewStateRepositoryPicksRedisWhenConfigured(t *testing.T) {
	cfg := config.StateConfig{
		CartPath:  filepath.Join(t.TempDir(), "cart.json"),
		RedisAddr: "localhost:6379",
		RedisTTL:  time.Hour,
	}

	repo, err := newStateRepository(cfg, api.NewTokenStore(""))
	if err != nil {
		t.Fatalf("newStateRepository: %v", err)
	}
	if _, ok := repo.(*state.RedisRepository); !ok {
		t.Fatalf("expected redis repository, got %T", repo)
	}
}
