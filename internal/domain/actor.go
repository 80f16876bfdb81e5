package domain

// AdminLevel is the minimum member level for the admin API
const AdminLevel = 10

// Actor is the authenticated editor performing a change.
// A zero Actor means the change was made by the system.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// SystemActor is used for changes without an authenticated user
var SystemActor = Actor{}

// IsSystem reports whether no user is attached
func (a Actor) IsSystem() bool {
	return a.ID == ""
}

// Ref returns the actor id as a nullable reference
func (a Actor) Ref() *string {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}
