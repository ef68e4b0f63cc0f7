package config

import (
	"fmt"
	"strings"
)

// Mode selects whether non-triggering family packages are refreshed too.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeTriggerOnly Mode = "trigger-only"
)

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeFull):
		return ModeFull, nil
	case string(ModeTriggerOnly):
		return ModeTriggerOnly, nil
	default:
		return "", fmt.Errorf("%w %q (expected: full, trigger-only)", ErrInvalidMode, raw)
	}
}

// RefreshesFamily reports whether packages owned by other registered sources
// are looked up on NuGet.
func (m Mode) RefreshesFamily() bool {
	return m == ModeFull
}
