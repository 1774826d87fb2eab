package cache

import (
	"testing"
	"time"
)

func TestPageEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"expired entry", time.Now().Add(-1 * time.Hour), true},
		{"valid entry", time.Now().Add(1 * time.Hour), false},
		{"zero expiry", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &PageEntry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageEntry_TTL(t *testing.T) {
	entry := &PageEntry{Expires: time.Now().Add(5 * time.Minute)}
	if ttl := entry.TTL(); ttl < 4*time.Minute+59*time.Second || ttl > 5*time.Minute {
		t.Errorf("TTL() = %v, want about 5m", ttl)
	}

	expired := &PageEntry{Expires: time.Now().Add(-time.Minute)}
	if ttl := expired.TTL(); ttl != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", ttl)
	}
}
