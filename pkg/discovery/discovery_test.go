package discovery

import (
	"context"
	"testing"
	"time"
)

func TestDiscovery(t *testing.T) {
	// Skip in CI/docker environments where multicast might not work
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	// 1. Start Advertiser
	advertiser := NewAdvertiser()
	meta := map[string]string{"bank": "192.0.2.1"}
	port := 65530

	err := advertiser.Start("test-bank", port, meta)
	if err != nil {
		t.Fatalf("Failed to start advertiser: %v", err)
	}
	defer advertiser.Stop()

	// Give it a moment to announce
	time.Sleep(500 * time.Millisecond)

	// 2. Start Resolver
	resolver, err := NewResolver()
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := resolver.Browse(ctx)
	if err != nil {
		t.Fatalf("Failed to browse: %v", err)
	}

	// 3. Verify Discovery
	found := false
	for info := range ch {
		if info.Port == port && info.Meta["bank"] == "192.0.2.1" {
			found = true
			if len(info.IPs) == 0 {
				t.Error("Discovered service has no IPs")
			}
			t.Logf("Found bank node: %+v", info)
			break
		}
	}

	if !found {
		t.Error("Failed to discover the test bank node")
	}
}
