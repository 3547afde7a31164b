package sessiondetail

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

func stringPtr(s string) *string {
	return &s
}

var noParser = UserAgentParserFunc(func(string) UserAgentDetails { return UserAgentDetails{} })

func TestHeaderLabel(t *testing.T) {
	tests := []struct {
		name        string
		info        Info
		genericName string
		want        string
	}{
		{
			name: "browser and os",
			info: Info{BrowserName: stringPtr("Chrome"), OSName: stringPtr("macOS")},
			want: "Chrome on macOS",
		},
		{
			name: "browser only",
			info: Info{BrowserName: stringPtr("Chrome")},
			want: "Chrome",
		},
		{
			name: "os only",
			info: Info{OSName: stringPtr("Linux")},
			want: "Linux",
		},
		{
			name:        "generic name",
			info:        Info{},
			genericName: "Session",
			want:        "Session",
		},
		{
			name: "all absent",
			info: Info{},
			want: Placeholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderLabel(tt.info, tt.genericName); got != tt.want {
				t.Errorf("HeaderLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveInfo_PreservesAbsence(t *testing.T) {
	rec := &domain.SessionRecord{
		UID:         "s1",
		IP:          stringPtr("203.0.113.7"),
		BrowserName: stringPtr("  "),
	}

	info := DeriveInfo(rec, noParser)

	if info.IP == nil || *info.IP != "203.0.113.7" {
		t.Errorf("IP = %v, want 203.0.113.7", info.IP)
	}
	if info.BrowserName != nil {
		t.Errorf("blank BrowserName should be absent, got %q", *info.BrowserName)
	}
	if info.Location != nil || info.OSName != nil || info.DeviceModel != nil {
		t.Error("missing signals should stay nil at derivation")
	}
	if Display(info.Location) != Placeholder {
		t.Errorf("Display(nil) = %q, want %q", Display(info.Location), Placeholder)
	}
}

func TestDeriveInfo_RecordWinsOverParser(t *testing.T) {
	calls := 0
	parser := UserAgentParserFunc(func(userAgent string) UserAgentDetails {
		calls++
		return UserAgentDetails{BrowserName: "Firefox", OSName: "Windows", DeviceModel: "Desktop"}
	})

	rec := &domain.SessionRecord{
		UID:         "s1",
		UserAgent:   "Mozilla/5.0",
		BrowserName: stringPtr("Edge"),
	}

	info := DeriveInfo(rec, parser)

	if calls != 1 {
		t.Errorf("parser calls = %d, want 1", calls)
	}
	if *info.BrowserName != "Edge" {
		t.Errorf("BrowserName = %q, want Edge", *info.BrowserName)
	}
	if *info.OSName != "Windows" {
		t.Errorf("OSName = %q, want Windows", *info.OSName)
	}
	if *info.DeviceModel != "Desktop" {
		t.Errorf("DeviceModel = %q, want Desktop", *info.DeviceModel)
	}
}

func TestDeriveInfo_NilRecord(t *testing.T) {
	if info := DeriveInfo(nil, DefaultUserAgentParser); info != (Info{}) {
		t.Errorf("DeriveInfo(nil) = %+v, want zero", info)
	}
}

func TestDefaultUserAgentParser(t *testing.T) {
	details := DefaultUserAgentParser.Parse("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	if details.BrowserName != "Chrome" {
		t.Errorf("BrowserName = %q, want Chrome", details.BrowserName)
	}
	if details.OSName != "macOS" {
		t.Errorf("OSName = %q, want macOS", details.OSName)
	}

	if empty := DefaultUserAgentParser.Parse(""); empty != (UserAgentDetails{}) {
		t.Errorf("Parse(\"\") = %+v, want zero", empty)
	}
}

func TestResolveApplications(t *testing.T) {
	tests := []struct {
		name string
		rec  *domain.SessionRecord
		want []domain.ApplicationReference
	}{
		{
			name: "nil record",
			rec:  nil,
		},
		{
			name: "empty map",
			rec:  &domain.SessionRecord{UID: "s1"},
		},
		{
			name: "received order with built-ins",
			rec:  &domain.SessionRecord{UID: "s1", Authorizations: domain.NewAuthorizations("spa", domain.AdminConsoleApplicationID, "m2m")},
			want: []domain.ApplicationReference{
				{ID: "spa"},
				{ID: domain.AdminConsoleApplicationID, IsBuiltIn: true},
				{ID: "m2m"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := ResolveApplications(tt.rec)
			if len(tt.want) == 0 {
				if !apps.Empty() {
					t.Errorf("Empty() = false, refs %v", apps.Refs)
				}
				if apps.String() != Placeholder {
					t.Errorf("String() = %q, want %q", apps.String(), Placeholder)
				}
				return
			}
			if !reflect.DeepEqual(apps.Refs, tt.want) {
				t.Errorf("Refs = %v, want %v", apps.Refs, tt.want)
			}
		})
	}
}

func TestResolveApplications_DistinctKeys(t *testing.T) {
	var rec domain.SessionRecord
	data := []byte(`{"uid":"s1","authorizations":{"app":{},"app ":{},"App":{},"app":{}}}`)
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	apps := ResolveApplications(&rec)

	want := []string{"app", "app ", "App"}
	if len(apps.Refs) != len(want) {
		t.Fatalf("len(Refs) = %d, want %d", len(apps.Refs), len(want))
	}
	for i, ref := range apps.Refs {
		if ref.ID != want[i] {
			t.Errorf("Refs[%d] = %q, want %q", i, ref.ID, want[i])
		}
	}
}

func TestBuildFields_NilRecord(t *testing.T) {
	if fields := BuildFields(nil, "u1", DefaultOptions()); len(fields) != 0 {
		t.Errorf("BuildFields(nil) returned %d fields, want 0", len(fields))
	}
}

func TestBuildFields_OrderAndValues(t *testing.T) {
	rec := &domain.SessionRecord{
		UID:            "sess_123",
		LoginTs:        floatPtr(1700000000),
		Authorizations: domain.NewAuthorizations("spa", domain.DemoAppApplicationID),
		IP:             stringPtr("203.0.113.7"),
		BrowserName:    stringPtr("Chrome"),
		OSName:         stringPtr("macOS"),
	}

	fields := BuildFields(rec, "user_1", Options{DateTimeFormat: utcFormat, Parser: noParser})

	wantKeys := []string{"session_id", "user_id", "signed_in_at", "device", "browser", "os", "ip", "location", "applications"}
	if len(fields) != len(wantKeys) {
		t.Fatalf("len(fields) = %d, want %d", len(fields), len(wantKeys))
	}
	seen := make(map[string]bool)
	for i, f := range fields {
		if f.Key != wantKeys[i] {
			t.Errorf("fields[%d].Key = %q, want %q", i, f.Key, wantKeys[i])
		}
		if seen[f.Key] {
			t.Errorf("duplicate key %q", f.Key)
		}
		seen[f.Key] = true
	}

	byKey := make(map[string]Field)
	for _, f := range fields {
		byKey[f.Key] = f
	}

	if v, ok := byKey["session_id"].Value.(CodeValue); !ok || v.Code != "sess_123" {
		t.Errorf("session_id = %#v, want CodeValue sess_123", byKey["session_id"].Value)
	}
	if got := byKey["signed_in_at"].Value.String(); got != "11/14/2023, 10:13:20 PM" {
		t.Errorf("signed_in_at = %q", got)
	}
	if byKey["device"].Value.Kind() != KindPlaceholder {
		t.Errorf("device kind = %q, want placeholder", byKey["device"].Value.Kind())
	}
	if byKey["location"].Value.String() != Placeholder {
		t.Errorf("location = %q, want placeholder", byKey["location"].Value.String())
	}

	links, ok := byKey["applications"].Value.(LinkListValue)
	if !ok {
		t.Fatalf("applications = %#v, want LinkListValue", byKey["applications"].Value)
	}
	if links.Refs[0].Href() == "" {
		t.Error("non-built-in application should be linkable")
	}
	if links.Refs[1].Href() != "" {
		t.Error("built-in application should not be linkable")
	}
}

func TestBuildFields_NoAuthorizationsRendersPlaceholder(t *testing.T) {
	fields := BuildFields(&domain.SessionRecord{UID: "s1"}, "u1", Options{DateTimeFormat: utcFormat})

	last := fields[len(fields)-1]
	if last.Key != "applications" {
		t.Fatalf("last key = %q, want applications", last.Key)
	}
	if _, ok := last.Value.(PlaceholderValue); !ok {
		t.Errorf("applications = %#v, want PlaceholderValue", last.Value)
	}
	if fields[2].Value.Kind() != KindPlaceholder {
		t.Errorf("signed_in_at without loginTs should be a placeholder, got %q", fields[2].Value.Kind())
	}
}

func TestBuildFields_FreshSlice(t *testing.T) {
	rec := &domain.SessionRecord{UID: "s1", Authorizations: domain.NewAuthorizations("spa")}
	opts := Options{DateTimeFormat: utcFormat}

	first := BuildFields(rec, "u1", opts)
	first[0].Value = TextValue{Text: "mutated"}
	first[8].Value.(LinkListValue).Refs[0] = domain.ApplicationReference{ID: "other"}

	second := BuildFields(rec, "u1", opts)
	if second[0].Value.String() != "s1" {
		t.Errorf("session_id = %q, want s1", second[0].Value.String())
	}
	if second[8].Value.(LinkListValue).Refs[0].ID != "spa" {
		t.Error("rebuilt fields should not share state with earlier results")
	}
}

func TestField_MarshalJSON(t *testing.T) {
	field := Field{
		Key:   "applications",
		Label: LabelApplications,
		Value: LinkListValue{Refs: []domain.ApplicationReference{
			domain.NewApplicationReference("spa"),
			domain.NewApplicationReference(domain.AdminConsoleApplicationID),
		}},
	}

	data, err := json.Marshal(field)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Key          string `json:"key"`
		Kind         string `json:"kind"`
		Value        string `json:"value"`
		Applications []struct {
			ID        string `json:"id"`
			IsBuiltIn bool   `json:"isBuiltIn"`
			Href      string `json:"href"`
		} `json:"applications"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Kind != string(KindLinkList) {
		t.Errorf("kind = %q, want %q", decoded.Kind, KindLinkList)
	}
	if decoded.Value != "spa, admin-console" {
		t.Errorf("value = %q", decoded.Value)
	}
	if decoded.Applications[0].Href != "/applications/spa" {
		t.Errorf("href = %q", decoded.Applications[0].Href)
	}
	if !decoded.Applications[1].IsBuiltIn || decoded.Applications[1].Href != "" {
		t.Errorf("built-in application = %+v", decoded.Applications[1])
	}
}
