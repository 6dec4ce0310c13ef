package collect

import "fmt"

// Lookup counts ledger rows by exact fingerprint.
type Lookup interface {
	CountFingerprint(fingerprint string) (int, error)
}

// Deduplicator decides whether an entry title has already been handled.
type Deduplicator struct {
	ledger Lookup
}

// NewDeduplicator creates a Deduplicator over the given ledger.
func NewDeduplicator(ledger Lookup) *Deduplicator {
	return &Deduplicator{ledger: ledger}
}

// IsSeen reports whether a ledger row exists for the title under either
// fingerprint variant. Faulty rows count: a failed entry is not retried.
func (d *Deduplicator) IsSeen(title string) (bool, error) {
	current := Fingerprint(title)
	n, err := d.ledger.CountFingerprint(current)
	if err != nil {
		return false, fmt.Errorf("looking up fingerprint: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	legacy := LegacyFingerprint(title)
	if legacy == current {
		return false, nil
	}
	n, err = d.ledger.CountFingerprint(legacy)
	if err != nil {
		return false, fmt.Errorf("looking up legacy fingerprint: %w", err)
	}
	return n > 0, nil
}
