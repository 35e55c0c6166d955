package gateway

import (
	"strings"

	vo "paygate/internal/domain/payment/valueobjects"
)

// StatusMap is a per-gateway lookup table from a provider's raw status
// vocabulary to the canonical lifecycle. Tables are static data, not
// shared logic: providers do not share a vocabulary, so every adapter
// declares its own.
//
// Keys are matched case-insensitively; declare them lowercase.
type StatusMap map[string]vo.Status

// Resolve maps a raw provider status onto the canonical enum. Values
// absent from the table map to unknown; the normalizer never guesses
// completed or failed on an implementer's behalf.
func (m StatusMap) Resolve(raw string) vo.Status {
	if raw == "" {
		return vo.StatusUnknown
	}
	status, ok := m[strings.ToLower(strings.TrimSpace(raw))]
	if !ok || !status.IsValid() {
		return vo.StatusUnknown
	}
	return status
}

// ResolvePreferringCode applies the tie-break rule for payloads that
// carry both a numeric/code field and a textual status: the code wins,
// since it is the more stable contract across provider API versions.
// The textual value is the caller's to carry through in response data
// for diagnostics.
func (m StatusMap) ResolvePreferringCode(code, text string) vo.Status {
	if code != "" {
		return m.Resolve(code)
	}
	return m.Resolve(text)
}
