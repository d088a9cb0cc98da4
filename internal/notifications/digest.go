package notifications

import (
	"fmt"
	"strings"

	"github.com/albapepper/halftime-watch/internal/provider"
	"github.com/albapepper/halftime-watch/internal/schedule"
)

// FormatDigest renders the daily fixture summary sent after discovery.
func FormatDigest(day string, fixtures []provider.Match, window schedule.Window, ok bool) string {
	if !ok || len(fixtures) == 0 {
		return fmt.Sprintf("📅 <b>%s</b>\nNo matches today in the tracked leagues.", day)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Fixtures %s</b>\n", day)
	fmt.Fprintf(&b, "%d matches · watching %s\n", len(fixtures), window)
	return b.String()
}
