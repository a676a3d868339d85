package booking

// ActorKind says on whose behalf a transition is driven.
type ActorKind string

const (
	ActorPatient ActorKind = "patient"
	ActorDoctor  ActorKind = "doctor"
	ActorAdmin   ActorKind = "admin"
)

// Actor is the request-scoped authorization context passed into every state
// transition. It replaces ambient session state: the HTTP layer builds it
// from the verified token (doctor/admin) or from possession of the
// confirmation code (patient).
type Actor struct {
	Kind ActorKind
	ID   string
}

func (a Actor) String() string {
	if a.ID == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.ID
}
