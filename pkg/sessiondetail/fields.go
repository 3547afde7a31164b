package sessiondetail

import (
	"encoding/json"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// LabelKey is a translation key for a field label.
type LabelKey string

// Field labels.
const (
	LabelSessionID    LabelKey = "user_details.sessions.session_id"
	LabelUserID       LabelKey = "user_details.sessions.user_id"
	LabelSignedInAt   LabelKey = "user_details.sessions.signed_in_at"
	LabelDevice       LabelKey = "user_details.sessions.device"
	LabelBrowser      LabelKey = "user_details.sessions.browser"
	LabelOS           LabelKey = "user_details.sessions.os"
	LabelIP           LabelKey = "user_details.sessions.ip"
	LabelLocation     LabelKey = "user_details.sessions.location"
	LabelApplications LabelKey = "user_details.sessions.authorized_applications"
)

// ValueKind tags the variant of a field value.
type ValueKind string

// Value kinds.
const (
	KindText        ValueKind = "text"
	KindCode        ValueKind = "code"
	KindLinkList    ValueKind = "links"
	KindPlaceholder ValueKind = "placeholder"
)

// Value is a renderable field value. The set of implementations is closed.
type Value interface {
	Kind() ValueKind
	String() string
	isValue()
}

// TextValue is plain text.
type TextValue struct{ Text string }

// CodeValue is an identifier rendered in monospace.
type CodeValue struct{ Code string }

// LinkListValue lists application references; non-built-in ones are linkable.
type LinkListValue struct{ Refs []domain.ApplicationReference }

// PlaceholderValue marks an absent value.
type PlaceholderValue struct{}

func (TextValue) Kind() ValueKind        { return KindText }
func (CodeValue) Kind() ValueKind        { return KindCode }
func (LinkListValue) Kind() ValueKind    { return KindLinkList }
func (PlaceholderValue) Kind() ValueKind { return KindPlaceholder }

func (v TextValue) String() string      { return v.Text }
func (v CodeValue) String() string      { return v.Code }
func (v LinkListValue) String() string  { return Applications{Refs: v.Refs}.String() }
func (PlaceholderValue) String() string { return Placeholder }

func (TextValue) isValue()        {}
func (CodeValue) isValue()        {}
func (LinkListValue) isValue()    {}
func (PlaceholderValue) isValue() {}

// Field is one labeled row of the session detail view.
type Field struct {
	Key   string
	Label LabelKey
	Value Value
}

type fieldJSON struct {
	Key          string     `json:"key"`
	Label        LabelKey   `json:"label"`
	Kind         ValueKind  `json:"kind"`
	Value        string     `json:"value"`
	Applications []linkJSON `json:"applications,omitempty"`
}

type linkJSON struct {
	ID        string `json:"id"`
	IsBuiltIn bool   `json:"isBuiltIn"`
	Href      string `json:"href,omitempty"`
}

// MarshalJSON encodes the field with its value kind.
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{Key: f.Key, Label: f.Label}
	value := f.Value
	if value == nil {
		value = PlaceholderValue{}
	}
	out.Kind = value.Kind()
	out.Value = value.String()
	if links, ok := value.(LinkListValue); ok {
		for _, ref := range links.Refs {
			out.Applications = append(out.Applications, linkJSON{ID: ref.ID, IsBuiltIn: ref.IsBuiltIn, Href: ref.Href()})
		}
	}
	return json.Marshal(out)
}

// Options tunes field derivation.
type Options struct {
	DateTimeFormat DateTimeFormat
	// Parser fills signals missing from the record; nil disables parsing.
	Parser UserAgentParser
}

// DefaultOptions returns options with the default format and parser.
func DefaultOptions() Options {
	return Options{
		DateTimeFormat: DefaultDateTimeFormat,
		Parser:         DefaultUserAgentParser,
	}
}

// BuildFields derives the ordered field list for rec. It performs no I/O and
// returns a fresh slice on every call; nil rec yields no fields.
func BuildFields(rec *domain.SessionRecord, userID string, opts Options) []Field {
	if rec == nil {
		return nil
	}

	info := DeriveInfo(rec, opts.Parser)
	return Compose(rec, userID, info, ResolveApplications(rec), NormalizeLoginTs(rec.LoginTs, opts.DateTimeFormat))
}

// Compose assembles fields from already derived parts.
func Compose(rec *domain.SessionRecord, userID string, info Info, apps Applications, signedInAt string) []Field {
	if rec == nil {
		return nil
	}

	fields := []Field{
		{Key: "session_id", Label: LabelSessionID, Value: codeOrPlaceholder(rec.UID)},
		{Key: "user_id", Label: LabelUserID, Value: codeOrPlaceholder(userID)},
		{Key: "signed_in_at", Label: LabelSignedInAt, Value: textOrPlaceholder(signedInAt)},
		{Key: "device", Label: LabelDevice, Value: optionalText(info.DeviceModel)},
		{Key: "browser", Label: LabelBrowser, Value: optionalText(info.BrowserName)},
		{Key: "os", Label: LabelOS, Value: optionalText(info.OSName)},
		{Key: "ip", Label: LabelIP, Value: optionalCode(info.IP)},
		{Key: "location", Label: LabelLocation, Value: optionalText(info.Location)},
	}

	if apps.Empty() {
		fields = append(fields, Field{Key: "applications", Label: LabelApplications, Value: PlaceholderValue{}})
	} else {
		refs := make([]domain.ApplicationReference, len(apps.Refs))
		copy(refs, apps.Refs)
		fields = append(fields, Field{Key: "applications", Label: LabelApplications, Value: LinkListValue{Refs: refs}})
	}

	return fields
}

func textOrPlaceholder(s string) Value {
	if s == "" || s == Placeholder {
		return PlaceholderValue{}
	}
	return TextValue{Text: s}
}

func codeOrPlaceholder(s string) Value {
	if s == "" {
		return PlaceholderValue{}
	}
	return CodeValue{Code: s}
}

func optionalText(v *string) Value {
	if v == nil {
		return PlaceholderValue{}
	}
	return TextValue{Text: *v}
}

func optionalCode(v *string) Value {
	if v == nil {
		return PlaceholderValue{}
	}
	return CodeValue{Code: *v}
}
