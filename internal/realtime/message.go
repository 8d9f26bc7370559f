package realtime

type SSEEvent string

const (
	SSEEventPredictionCreated SSEEvent = "PredictionCreated"
	SSEEventStudentUpdated    SSEEvent = "StudentUpdated"
	SSEEventStudentDeleted    SSEEvent = "StudentDeleted"
)

// AdminChannel receives every student lifecycle event.
const AdminChannel = "admin"

// SSEMessage is a notification only; clients re-read current state from
// the API after receiving one.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
