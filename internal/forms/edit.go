package forms

// EditSession records which record, if any, a resource form is editing.
// The zero ID means the form creates a new record.
type EditSession struct {
	Resource string
	ID       string
}

// NewEditSession starts editing id of resource.
func NewEditSession(resource, id string) EditSession {
	return EditSession{Resource: resource, ID: id}
}

// Editing reports whether the session targets an existing record.
func (e EditSession) Editing() bool {
	return e.ID != ""
}

// Cleared returns the session for the same resource with no record held.
func (e EditSession) Cleared() EditSession {
	return EditSession{Resource: e.Resource}
}
