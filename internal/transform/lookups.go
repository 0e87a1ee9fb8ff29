package transform

import (
	"context"
	"errors"
	"strings"
)

// ErrLookupMiss is returned when a lookup table has no row for the key.
var ErrLookupMiss = errors.New("lookup table has no entry for key")

// LookupFacade answers the reference-data questions the rule set asks:
// whether an outcode is known, and which BSO code serves an outcode or an
// existing GP practice.
type LookupFacade interface {
	ValidOutcode(ctx context.Context, outcode string) (bool, error)
	BSOCodeByOutcode(ctx context.Context, outcode string) (string, error)
	BSOCodeByProvider(ctx context.Context, gpPracticeCode string) (string, error)
}

// Outcode extracts the outward part of a postcode. An empty result means the
// postcode cannot yield a valid outcode.
func Outcode(postcode string) string {
	trimmed := strings.TrimSpace(postcode)
	if idx := strings.IndexByte(trimmed, ' '); idx > 0 {
		return strings.ToUpper(trimmed[:idx])
	}
	// Without an inward part the whole code can at most be an outcode.
	if len(trimmed) >= 2 && len(trimmed) <= 4 {
		return strings.ToUpper(trimmed)
	}
	return ""
}
