package domain

// Platform-reserved application IDs.
const (
	AdminConsoleApplicationID = "admin-console"
	DemoAppApplicationID      = "demo-app"
)

var builtInApplicationIDs = map[string]struct{}{
	AdminConsoleApplicationID: {},
	DemoAppApplicationID:      {},
}

// IsBuiltInApplicationID reports whether id belongs to a platform-reserved application.
func IsBuiltInApplicationID(id string) bool {
	_, ok := builtInApplicationIDs[id]
	return ok
}

// ApplicationReference points at an application a session has authorized.
type ApplicationReference struct {
	ID        string `json:"id"`
	IsBuiltIn bool   `json:"isBuiltIn"`
}

// NewApplicationReference creates a reference, resolving IsBuiltIn from the registry.
func NewApplicationReference(id string) ApplicationReference {
	return ApplicationReference{ID: id, IsBuiltIn: IsBuiltInApplicationID(id)}
}

// Href returns the console path of the application, or "" for built-in applications.
func (r ApplicationReference) Href() string {
	if r.IsBuiltIn {
		return ""
	}
	return "/applications/" + r.ID
}
