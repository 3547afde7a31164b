package sessiondetail

import (
	"strings"

	ua "github.com/mileusna/useragent"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// Info holds display signals derived from a session. A nil field is absent;
// placeholders are applied at presentation time only.
type Info struct {
	IP          *string
	Location    *string
	BrowserName *string
	OSName      *string
	DeviceModel *string
}

// UserAgentDetails is what a UserAgentParser can tell about a client.
type UserAgentDetails struct {
	BrowserName string
	OSName      string
	DeviceModel string
}

// UserAgentParser extracts client details from a raw User-Agent string.
type UserAgentParser interface {
	Parse(userAgent string) UserAgentDetails
}

// UserAgentParserFunc adapts a function to UserAgentParser.
type UserAgentParserFunc func(userAgent string) UserAgentDetails

// Parse calls f(userAgent).
func (f UserAgentParserFunc) Parse(userAgent string) UserAgentDetails {
	return f(userAgent)
}

// DefaultUserAgentParser parses User-Agent strings with mileusna/useragent.
var DefaultUserAgentParser UserAgentParser = UserAgentParserFunc(parseUserAgent)

func parseUserAgent(userAgent string) UserAgentDetails {
	if strings.TrimSpace(userAgent) == "" {
		return UserAgentDetails{}
	}

	parsed := ua.Parse(userAgent)

	details := UserAgentDetails{
		BrowserName: strings.TrimSpace(parsed.Name),
		OSName:      strings.TrimSpace(parsed.OS),
		DeviceModel: strings.TrimSpace(parsed.Device),
	}
	if details.DeviceModel == "" {
		switch {
		case parsed.Tablet:
			details.DeviceModel = "Tablet"
		case parsed.Mobile:
			details.DeviceModel = "Mobile"
		case parsed.Desktop:
			details.DeviceModel = "Desktop"
		}
	}
	return details
}

// DeriveInfo extracts display signals from rec. Signals the record carries
// win over those parsed from its User-Agent. A nil parser skips parsing.
func DeriveInfo(rec *domain.SessionRecord, parser UserAgentParser) Info {
	if rec == nil {
		return Info{}
	}

	info := Info{
		IP:          present(rec.IP),
		Location:    present(rec.Location),
		BrowserName: present(rec.BrowserName),
		OSName:      present(rec.OSName),
		DeviceModel: present(rec.DeviceModel),
	}

	if parser == nil || rec.UserAgent == "" {
		return info
	}
	if info.BrowserName != nil && info.OSName != nil && info.DeviceModel != nil {
		return info
	}

	details := parser.Parse(rec.UserAgent)
	if info.BrowserName == nil {
		info.BrowserName = presentString(details.BrowserName)
	}
	if info.OSName == nil {
		info.OSName = presentString(details.OSName)
	}
	if info.DeviceModel == nil {
		info.DeviceModel = presentString(details.DeviceModel)
	}
	return info
}

// HeaderLabel names a session for the detail header: "<browser> on <os>"
// when both are known, otherwise the browser, the OS, genericName, or the
// placeholder, in that order.
func HeaderLabel(info Info, genericName string) string {
	switch {
	case info.BrowserName != nil && info.OSName != nil:
		return *info.BrowserName + " on " + *info.OSName
	case info.BrowserName != nil:
		return *info.BrowserName
	case info.OSName != nil:
		return *info.OSName
	case genericName != "":
		return genericName
	default:
		return Placeholder
	}
}

// Display returns *v, or the placeholder when v is absent.
func Display(v *string) string {
	if v == nil {
		return Placeholder
	}
	return *v
}

func present(v *string) *string {
	if v == nil {
		return nil
	}
	return presentString(*v)
}

func presentString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
