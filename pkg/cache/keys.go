package cache

import "net/url"

// SessionKey is the key of a single session: users/{userId}/sessions/{sessionId}.
func SessionKey(userID, sessionID string) string {
	return "users/" + url.PathEscape(userID) + "/sessions/" + url.PathEscape(sessionID)
}

// SessionListKey is the key of a user's session list: users/{userId}/sessions.
func SessionListKey(userID string) string {
	return "users/" + url.PathEscape(userID) + "/sessions"
}
