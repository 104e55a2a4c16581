package graphdata

import (
	"strings"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
)

// UnknownValue is displayed when no display field resolves.
const UnknownValue = "Unknown"

// Placeholder dates used by the platform for open-ended bounds.
const (
	FromStart = "1970-01-01T00:00:00.000Z"
	UntilEnd  = "5138-11-16T09:46:40.000Z"
)

var (
	fromStart = time.Unix(0, 0).UTC()
	untilEnd  = time.Unix(100000000000, 0).UTC()
)

type extractor func(domain.Object) string

// displayFields are probed in order; the first non-blank value wins.
var displayFields = []extractor{
	func(o domain.Object) string { return o.Name },
	func(o domain.Object) string { return o.Label },
	func(o domain.Object) string { return o.ObservableValue },
	func(o domain.Object) string { return o.ObservableName },
	func(o domain.Object) string { return o.AttributeAbstract },
	func(o domain.Object) string { return o.Opinion },
	func(o domain.Object) string { return o.Value },
	func(o domain.Object) string { return o.Title },
	func(o domain.Object) string { return o.Definition },
	func(o domain.Object) string { return o.SourceName },
	func(o domain.Object) string { return o.SystemName },
	func(o domain.Object) string { return o.PhaseName },
}

// dateFields are probed in order; none and unparseable values are skipped.
var dateFields = []extractor{
	func(o domain.Object) string { return o.StartTime },
	func(o domain.Object) string { return o.FirstSeen },
	func(o domain.Object) string { return o.FirstObserved },
	func(o domain.Object) string { return o.ValidFrom },
	func(o domain.Object) string { return o.Published },
	func(o domain.Object) string { return o.Created },
	func(o domain.Object) string { return o.CreatedAt },
}

func firstDisplayValue(obj domain.Object) string {
	for _, field := range displayFields {
		if v := strings.TrimSpace(field(obj)); v != "" {
			return v
		}
	}
	return ""
}

// DefaultValue returns the human-readable name of a record. Container-like
// records without a name of their own borrow one from their first member.
// In tooltip mode the MITRE id, when present, is prepended.
func DefaultValue(obj domain.Object, tooltip bool) string {
	value := firstDisplayValue(obj)
	if value == "" {
		if member, ok := obj.FirstMember(); ok {
			value = firstDisplayValue(member)
		}
	}
	if value == "" {
		value = UnknownValue
	}
	if tooltip {
		if id := strings.TrimSpace(obj.XMitreID); id != "" {
			return "[" + id + "] " + value
		}
	}
	return value
}

// DefaultDate returns the first meaningful timestamp of a record.
func DefaultDate(obj domain.Object) (time.Time, bool) {
	for _, field := range dateFields {
		raw := field(obj)
		if IsNone(raw) {
			continue
		}
		if t, ok := ParseDate(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func defaultDatePtr(obj domain.Object) *time.Time {
	t, ok := DefaultDate(obj)
	if !ok {
		return nil
	}
	return &t
}

// IsNone reports whether value is blank or one of the open-ended placeholder
// dates.
func IsNone(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || value == FromStart || value == UntilEnd {
		return true
	}
	t, ok := ParseDate(value)
	if !ok {
		return false
	}
	return t.Equal(fromStart) || t.Equal(untilEnd)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the timestamp encodings found in records and returns UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Truncate shortens s to limit runes, appending an ellipsis when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// DateFormat renders a date for node captions, "-" when absent.
func DateFormat(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("January 2, 2006")
}
