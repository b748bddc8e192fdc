package domain

// Member is the roster view of a participant.
// No transport or lifecycle logic here.
type Member struct {
	ID          EndpointID `json:"id"`
	DisplayName string     `json:"name"`
	IsHost      bool       `json:"is_host"`
}
