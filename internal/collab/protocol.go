package collab

import (
	"encoding/json"

	"github.com/strommix/strommix/internal/scene"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeSceneSync      = "scene.sync"
	TypeSceneRequest   = "scene.request"
	TypeSceneCommit    = "scene.commit"
	TypeSceneCommitted = "scene.committed"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpTranslate = "object.translate"
	OpScale     = "object.scale"
	OpRotate    = "object.rotate"
	OpTransform = "object.transform"
)

// Operation is one direct-manipulation edit of a scene object.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ObjectID  string `json:"objectId"`

	// For object.translate
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// For object.scale
	FX float64 `json:"fx,omitempty"`
	FY float64 `json:"fy,omitempty"`

	// For object.rotate
	Degrees float64 `json:"degrees,omitempty"`

	// For object.transform
	Placement *scene.Placement `json:"placement,omitempty"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	SessionID string `json:"sessionId"`
}

// SceneSyncPayload carries the full live scene; Scene is null when the
// session has no scene yet.
type SceneSyncPayload struct {
	Scene   *scene.Document `json:"scene"`
	Version uint64          `json:"version"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string          `json:"operationId"`
	Placement       scene.Placement `json:"placement"`
	ServerSeq       int64           `json:"serverSeq"`
	ServerTimestamp int64           `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload tells the other clients of a session the
// resulting placement of an accepted operation.
type OperationBroadcastPayload struct {
	Operation Operation       `json:"operation"`
	Placement scene.Placement `json:"placement"`
	ClientID  string          `json:"clientId"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
