package calculator

import (
	"fmt"
	"sort"
	"strings"
)

// Capability is one of the OHLCV inputs the pipeline needs.
type Capability string

const (
	CapOpen   Capability = "open"
	CapHigh   Capability = "high"
	CapLow    Capability = "low"
	CapClose  Capability = "close"
	CapVolume Capability = "volume"
)

// RequiredCapabilities is the capability set every frame must resolve, in resolution order.
var RequiredCapabilities = []Capability{CapOpen, CapHigh, CapLow, CapClose, CapVolume}

// MissingFieldError reports a capability that no provider field resolved to.
type MissingFieldError struct {
	Capability Capability
	Fields     []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field for %q (have %s)", e.Capability, strings.Join(e.Fields, ", "))
}

// Schema maps each capability to the provider field that carries it.
type Schema map[Capability]string

// Resolve matches provider field names to the required capabilities. Matching
// is case-insensitive; an exact name wins over a substring match, and ties are
// broken by sorted field order so the result never depends on map iteration.
func Resolve(fields []string) (Schema, error) {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)

	schema := make(Schema, len(RequiredCapabilities))
	for _, c := range RequiredCapabilities {
		name, ok := match(sorted, string(c))
		if !ok {
			return nil, &MissingFieldError{Capability: c, Fields: sorted}
		}
		schema[c] = name
	}
	return schema, nil
}

func match(fields []string, want string) (string, bool) {
	for _, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f), want) {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), want) {
			return f, true
		}
	}
	return "", false
}
