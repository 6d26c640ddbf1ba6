package models

// Model is implemented by every persistent entity.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Relationship describes how a user relates to the viewer.
type Relationship string

const (
	RelationshipNone            Relationship = "none"
	RelationshipFriend          Relationship = "friend"
	RelationshipRequestSent     Relationship = "request_sent"
	RelationshipRequestReceived Relationship = "request_received"
)

// Valid reports whether r is one of the known relationships.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipNone, RelationshipFriend, RelationshipRequestSent, RelationshipRequestReceived:
		return true
	}
	return false
}
