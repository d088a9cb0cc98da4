package decision

import (
	"fmt"
	"html"
	"strings"

	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/provider"
)

// FormatMessage renders the Telegram HTML body for a notify outcome.
func FormatMessage(o Outcome, m provider.Match, fs features.Set) string {
	var b strings.Builder

	switch o {
	case NotifyInsufficientData:
		b.WriteString("⚠️ <b>HT 0-0 · insufficient data</b>\n\n")
	default:
		b.WriteString("🔔 <b>HT 0-0</b>\n\n")
	}

	fmt.Fprintf(&b, "⚽ <b>%s</b> vs <b>%s</b>\n", esc(m.Home.Name), esc(m.Away.Name))
	league := esc(m.League.Name)
	if m.League.Country != "" {
		league += " (" + esc(m.League.Country) + ")"
	}
	fmt.Fprintf(&b, "🏆 %s\n", league)
	fmt.Fprintf(&b, "📊 Score: %s | HT: %s | %s\n", m.Goals, m.HalfTime, elapsed(m.Elapsed))

	switch o {
	case NotifyInsufficientData:
		b.WriteString("\nNot enough home/away history to evaluate this match.")
	case NotifyPartialData:
		fmt.Fprintf(&b, "\n📈 Combined avg: %s\n", features.FormatAvg(fs.CombinedHomeAway))
		b.WriteString("⚠️ Last-5 data missing")
	case NotifyFull:
		fmt.Fprintf(&b, "\n📈 Combined avg: %s\n", features.FormatAvg(fs.CombinedHomeAway))
		fmt.Fprintf(&b, "🏠 Home avg (home): %s\n", features.FormatAvg(fs.HomeTeamHomeAvg))
		fmt.Fprintf(&b, "✈️ Away avg (away): %s", features.FormatAvg(fs.AwayTeamAwayAvg))
	}
	return b.String()
}

func elapsed(v *int) string {
	if v == nil {
		return "-'"
	}
	return fmt.Sprintf("%d'", *v)
}

func esc(s string) string { return html.EscapeString(s) }
