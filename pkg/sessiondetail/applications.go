package sessiondetail

import (
	"strings"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// Applications is the resolved set of applications a session has authorized.
type Applications struct {
	Refs []domain.ApplicationReference
}

// ResolveApplications turns the session's authorization map into references
// in received key order. Keys are unique, so no reference repeats.
func ResolveApplications(rec *domain.SessionRecord) Applications {
	if rec == nil || rec.Authorizations.Len() == 0 {
		return Applications{}
	}

	keys := rec.Authorizations.Keys()
	refs := make([]domain.ApplicationReference, 0, len(keys))
	for _, id := range keys {
		refs = append(refs, domain.NewApplicationReference(id))
	}
	return Applications{Refs: refs}
}

// Empty reports whether there is nothing to list; it renders as the placeholder.
func (a Applications) Empty() bool {
	return len(a.Refs) == 0
}

// String renders the references as a comma-separated list, or the placeholder.
func (a Applications) String() string {
	if a.Empty() {
		return Placeholder
	}
	ids := make([]string, len(a.Refs))
	for i, ref := range a.Refs {
		ids[i] = ref.ID
	}
	return strings.Join(ids, ", ")
}
