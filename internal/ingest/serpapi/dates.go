package serpapi

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var relativeDate = regexp.MustCompile(`^(?:hace\s+)?(a|an|un|una|\d+)\s+(\p{L}+?)(?:\s+ago)?$`)

var relativeUnits = map[string]time.Duration{
	"minute": time.Minute, "minutes": time.Minute, "minuto": time.Minute, "minutos": time.Minute,
	"hour": time.Hour, "hours": time.Hour, "hora": time.Hour, "horas": time.Hour,
	"day": day, "days": day, "día": day, "días": day, "dia": day, "dias": day,
	"week": week, "weeks": week, "semana": week, "semanas": week,
	"month": month, "months": month, "mes": month, "meses": month,
	"year": year, "years": year, "año": year, "años": year,
}

// parseDate reads absolute dates with dateparse and relative ones such as
// "3 months ago" or "hace una semana" against now. Unparseable input yields
// the zero time.
func parseDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC()
	}

	if d, ok := parseRelative(raw); ok {
		return now.Add(-d).UTC().Truncate(day)
	}

	return time.Time{}
}

func parseRelative(raw string) (time.Duration, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))

	switch s {
	case "yesterday", "ayer":
		return day, true
	case "today", "hoy", "just now":
		return 0, true
	}

	m := relativeDate.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	unit, ok := relativeUnits[m[2]]
	if !ok {
		return 0, false
	}

	n := 1
	if v, err := strconv.Atoi(m[1]); err == nil {
		n = v
	}

	return time.Duration(n) * unit, true
}
