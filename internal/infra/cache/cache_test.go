package cache_test

import (
	"testing"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.MappingRecord](5 * time.Minute)

	rec := &domain.MappingRecord{QRID: "qr-1", Kind: domain.KindWebsite, Value: "https://a.com"}
	c.Set("qr-1", rec)

	got, ok := c.Get("qr-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if got.Value != "https://a.com" {
		t.Errorf("expected 'https://a.com', got '%s'", got.Value)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[*domain.MappingRecord](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
