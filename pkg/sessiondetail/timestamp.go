package sessiondetail

import (
	"math"
	"strings"
	"time"
)

// Placeholder is rendered wherever a value is absent.
const Placeholder = "-"

// Values below this are epoch seconds, values at or above it epoch milliseconds.
const millisecondThreshold = 1e12

// DateTimeFormat controls how an instant is rendered.
type DateTimeFormat struct {
	Layout   string
	Location *time.Location
}

// DefaultDateTimeFormat renders like en-US toLocaleString.
var DefaultDateTimeFormat = DateTimeFormat{
	Layout:   "1/2/2006, 3:04:05 PM",
	Location: time.Local,
}

var localeLayouts = map[string]string{
	"en":    "1/2/2006, 3:04:05 PM",
	"en-us": "1/2/2006, 3:04:05 PM",
	"en-gb": "02/01/2006, 15:04:05",
	"de":    "2.1.2006, 15:04:05",
	"fr":    "02/01/2006 15:04:05",
	"es":    "2/1/2006, 15:04:05",
	"ja":    "2006/1/2 15:04:05",
	"zh":    "2006/1/2 15:04:05",
	"pt-br": "02/01/2006, 15:04:05",
}

// FormatForLocale picks a layout for a ui_locales value. The value may hold
// several space-separated tags; the first supported one wins, matching the
// full tag before its primary language.
func FormatForLocale(uiLocales string) DateTimeFormat {
	for _, tag := range strings.Fields(uiLocales) {
		tag = strings.ToLower(strings.ReplaceAll(tag, "_", "-"))
		if layout, ok := localeLayouts[tag]; ok {
			return DateTimeFormat{Layout: layout, Location: DefaultDateTimeFormat.Location}
		}
		if i := strings.IndexByte(tag, '-'); i > 0 {
			if layout, ok := localeLayouts[tag[:i]]; ok {
				return DateTimeFormat{Layout: layout, Location: DefaultDateTimeFormat.Location}
			}
		}
	}
	return DefaultDateTimeFormat
}

// NormalizeLoginTs renders a login timestamp whose unit may be seconds or
// milliseconds. Absent and zero values render as Placeholder.
func NormalizeLoginTs(ts *float64, f DateTimeFormat) string {
	if ts == nil || *ts == 0 || math.IsNaN(*ts) {
		return Placeholder
	}
	return f.Format(ToTime(*ts))
}

// ToTime converts a seconds-or-milliseconds epoch value to a time.Time.
func ToTime(ts float64) time.Time {
	ms := ts
	if ms < millisecondThreshold {
		ms *= 1000
	}
	sec := math.Floor(ms / 1000)
	nsec := (ms - sec*1000) * float64(time.Millisecond)
	return time.Unix(int64(sec), int64(nsec))
}

// Format renders t in the configured layout and location.
func (f DateTimeFormat) Format(t time.Time) string {
	layout := f.Layout
	if layout == "" {
		layout = DefaultDateTimeFormat.Layout
	}
	if f.Location != nil {
		t = t.In(f.Location)
	}
	return t.Format(layout)
}
