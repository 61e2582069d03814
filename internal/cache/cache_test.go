package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKey_IgnoresExcludedAndOrder(t *testing.T) {
	a := Key("apt", map[string]string{"LAWD_CD": "11680", "DEAL_YMD": "202501", "serviceKey": "a"}, "serviceKey")
	b := Key("apt", map[string]string{"DEAL_YMD": "202501", "serviceKey": "b", "LAWD_CD": "11680"}, "serviceKey")
	if a != b {
		t.Errorf("expected equal keys, got %s and %s", a, b)
	}
	c := Key("apt", map[string]string{"LAWD_CD": "11650", "DEAL_YMD": "202501"})
	if a == c {
		t.Error("expected different keys for different regions")
	}
}

func TestFileCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("<xml/>"), 0); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "<xml/>" {
		t.Fatalf("got %q, %v", got, err)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss, got %v", err)
	}
}
