package collect

import (
	"errors"
	"testing"
)

type fakeLedger struct {
	rows    map[string]int
	lookups []string
	err     error
}

func (f *fakeLedger) CountFingerprint(fp string) (int, error) {
	f.lookups = append(f.lookups, fp)
	if f.err != nil {
		return 0, f.err
	}
	return f.rows[fp], nil
}

func TestIsSeenCurrentFingerprint(t *testing.T) {
	ledger := &fakeLedger{rows: map[string]int{Fingerprint("Episode 1"): 1}}
	seen, err := NewDeduplicator(ledger).IsSeen("Episode 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Error("expected entry to be seen")
	}
}

func TestIsSeenLegacyFingerprint(t *testing.T) {
	// Stored by an older release under the ASCII-only hash.
	ledger := &fakeLedger{rows: map[string]int{LegacyFingerprint("Café Olé"): 1}}
	seen, err := NewDeduplicator(ledger).IsSeen("Café Olé")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Error("expected entry stored under legacy fingerprint to be seen")
	}
}

func TestIsSeenUnknownTitle(t *testing.T) {
	ledger := &fakeLedger{rows: map[string]int{}}
	seen, err := NewDeduplicator(ledger).IsSeen("Brand New")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Error("expected unknown entry to be unseen")
	}
	// ASCII titles hash identically under both variants: one lookup is enough.
	if len(ledger.lookups) != 1 {
		t.Errorf("expected 1 lookup for ASCII title, got %d", len(ledger.lookups))
	}
}

func TestIsSeenPropagatesLedgerError(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("disk gone")}
	if _, err := NewDeduplicator(ledger).IsSeen("x"); err == nil {
		t.Error("expected ledger error to propagate")
	}
}
