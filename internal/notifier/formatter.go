package notifier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

// Price renders a price rounded to 2 decimal places.
func Price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Ratio renders a retracement ratio with 3 decimal places.
func Ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

// Multiplier renders an extension multiplier the way the targets are labelled ("1.618x", "2.0x").
func Multiplier(m float64) string {
	d := decimal.NewFromFloat(m)
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1) + "x"
	}
	return d.String() + "x"
}

// FormatReport formats a scan report into a Telegram message.
func FormatReport(rep *scanner.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🌊 <b>Wave Engine</b> | %s %s | %s\n\n",
		rep.Symbol, strings.ToUpper(rep.Interval), rep.ScannedAt.Format("2006-01-02 15:04")))

	det := rep.Detection
	if !det.Confirmed() {
		b.WriteString(fmt.Sprintf("Current Price: %s\n", Price(rep.CurrentPrice)))
		b.WriteString(fmt.Sprintf("❌ %s (%d candidates evaluated)\n", det.Diagnostic, len(det.Audit)))
		return b.String()
	}

	res := det.Result
	c := res.Candidate
	b.WriteString(fmt.Sprintf("Wave 1 Low: <b>%s</b>\n", Price(c.Wave1Low.Price)))
	b.WriteString(fmt.Sprintf("Wave 1 High: <b>%s</b>\n", Price(c.Wave1High.Price)))
	b.WriteString(fmt.Sprintf("Wave 2 Low: <b>%s</b> (retrace %s, %s)\n", Price(c.Wave2Low.Price), Ratio(c.RetraceRatio), c.Pattern))
	b.WriteString(fmt.Sprintf("Current Price: <b>%s</b>\n\n", Price(res.CurrentPrice)))

	zone := res.Projection.RetraceZone
	b.WriteString(fmt.Sprintf("<b>Fib Retracement Zone (Entry - Wave 2):</b> %s → %s\n", Price(zone.Lower), Price(zone.Upper)))
	if res.InEntryZone {
		b.WriteString("In Entry Zone: ✅ Yes\n\n")
	} else {
		b.WriteString("In Entry Zone: ❌ No\n\n")
	}

	b.WriteString("<b>Projected Fib Extensions (Wave 3/5 Targets)</b>\n")
	for _, t := range res.Projection.Targets {
		b.WriteString(fmt.Sprintf("  %s: %s\n", Multiplier(t.Multiplier), Price(t.Price)))
	}
	return b.String()
}

// FormatHistory formats recent scans as a compact list.
func FormatHistory(scans []recorder.ScanSummary) string {
	if len(scans) == 0 {
		return "No scans recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent scans</b>\n\n")
	for _, s := range scans {
		line := fmt.Sprintf("%s %s: %s", s.ScannedAt.Format("01-02 15:04"), strings.ToUpper(s.Interval), s.Outcome)
		if s.Confirmed() {
			line += fmt.Sprintf(" (W1 %s→%s, W2 %s)", Price(s.Wave1Low), Price(s.Wave1High), Price(s.Wave2Low))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp(intervals []string) string {
	return fmt.Sprintf("Available commands:\n• /wave <%s>\n• /history\n• /help", strings.Join(intervals, "|"))
}
