package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SessionRecord is a session snapshot as returned by the management API.
// A new fetch always produces a new record; records are never patched.
type SessionRecord struct {
	UID            string         `json:"uid"`
	UserID         string         `json:"userId,omitempty"`
	LoginTs        *float64       `json:"loginTs,omitempty"`
	Authorizations Authorizations `json:"authorizations"`

	// Device and location signals, each optional.
	IP          *string `json:"ip,omitempty"`
	Location    *string `json:"location,omitempty"`
	BrowserName *string `json:"browserName,omitempty"`
	OSName      *string `json:"osName,omitempty"`
	DeviceModel *string `json:"deviceModel,omitempty"`
	UserAgent   string  `json:"userAgent,omitempty"`
}

// Authorizations maps application client IDs to their grant payloads.
// Keys keep the order in which they were received.
type Authorizations struct {
	keys   []string
	grants map[string]json.RawMessage
}

// NewAuthorizations builds an Authorizations from client IDs in order.
// Repeated IDs keep their first position.
func NewAuthorizations(clientIDs ...string) Authorizations {
	var a Authorizations
	for _, id := range clientIDs {
		a.Set(id, json.RawMessage(`{}`))
	}
	return a
}

// Set stores a grant payload. An existing key keeps its position.
func (a *Authorizations) Set(clientID string, grant json.RawMessage) {
	if a.grants == nil {
		a.grants = make(map[string]json.RawMessage)
	}
	if _, ok := a.grants[clientID]; !ok {
		a.keys = append(a.keys, clientID)
	}
	a.grants[clientID] = grant
}

// Keys returns the client IDs in received order.
func (a Authorizations) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Grant returns the raw grant payload for a client ID.
func (a Authorizations) Grant(clientID string) (json.RawMessage, bool) {
	g, ok := a.grants[clientID]
	return g, ok
}

// Len returns the number of distinct client IDs.
func (a Authorizations) Len() int {
	return len(a.keys)
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (a *Authorizations) UnmarshalJSON(data []byte) error {
	*a = Authorizations{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("authorizations: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("authorizations: expected key, got %v", tok)
		}
		var grant json.RawMessage
		if err := dec.Decode(&grant); err != nil {
			return fmt.Errorf("authorizations: decode %q: %w", key, err)
		}
		a.Set(key, grant)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in key order.
func (a Authorizations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		grant := a.grants[key]
		if len(grant) == 0 {
			grant = json.RawMessage("null")
		}
		buf.Write(grant)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
