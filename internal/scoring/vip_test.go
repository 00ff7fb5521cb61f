package scoring

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func TestVIPResolverMatchModes(t *testing.T) {
	entries := []core.VIPSenderEntry{
		{Pattern: "boss@corp.com", Mode: core.VIPMatchExact, Boost: 4, Active: true},
		{Pattern: "client.org", Mode: core.VIPMatchDomain, Boost: 3, Active: true},
		{Pattern: "recruiter", Mode: core.VIPMatchSubstring, Boost: 2, Active: true},
	}
	resolver := NewVIPResolver(entries, zap.NewNop())

	tests := []struct {
		name   string
		sender string
		want   int
	}{
		{"exact match", "boss@corp.com", 4},
		{"exact is not a substring", "notboss@corp.com", 0},
		{"domain match", "anyone@client.org", 3},
		{"domain does not match local part", "client.org@elsewhere.com", 0},
		{"substring match", "tech-recruiter@agency.io", 2},
		{"case insensitive", "Boss@Corp.COM", 4},
		{"no match", "spam@random.net", 0},
		{"empty sender", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Boost(tt.sender); got != tt.want {
				t.Errorf("Boost(%q) = %d, want %d", tt.sender, got, tt.want)
			}
		})
	}
}

func TestVIPResolverTakesMaximumOfMatches(t *testing.T) {
	entries := []core.VIPSenderEntry{
		{Pattern: "corp.com", Mode: core.VIPMatchDomain, Boost: 2, Active: true},
		{Pattern: "ceo@corp.com", Mode: core.VIPMatchExact, Boost: 5, Active: true},
		{Pattern: "ceo", Mode: core.VIPMatchSubstring, Boost: 1, Active: true},
	}
	resolver := NewVIPResolver(entries, zap.NewNop())
	if got := resolver.Boost("ceo@corp.com"); got != 5 {
		t.Errorf("Boost = %d, want the maximum matching boost 5", got)
	}
}

func TestVIPResolverIgnoresInactiveAndInvalidEntries(t *testing.T) {
	entries := []core.VIPSenderEntry{
		{Pattern: "a@b.com", Mode: core.VIPMatchExact, Boost: 5, Active: false},
		{Pattern: "a@b.com", Mode: core.VIPMatchExact, Boost: 0, Active: true},
		{Pattern: "", Mode: core.VIPMatchExact, Boost: 5, Active: true},
	}
	resolver := NewVIPResolver(entries, zap.NewNop())
	if got := resolver.Boost("a@b.com"); got != 0 {
		t.Errorf("Boost = %d, want 0 for inactive or zero-boost entries", got)
	}
}

func TestVIPResolverCapsOversizedBoost(t *testing.T) {
	entries := []core.VIPSenderEntry{
		{Pattern: "a@b.com", Mode: core.VIPMatchExact, Boost: 99, Active: true},
	}
	resolver := NewVIPResolver(entries, zap.NewNop())
	if got := resolver.Boost("a@b.com"); got != core.MaxVIPBoost {
		t.Errorf("Boost = %d, want the cap %d", got, core.MaxVIPBoost)
	}
}
