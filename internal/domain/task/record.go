package task

import (
	"encoding/json"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
)

// Kind is the A2A event kind of a Record.
type Kind string

const (
	// KindTask is the initial task snapshot.
	KindTask           Kind = "task"
	// KindStatusUpdate is a state transition.
	KindStatusUpdate   Kind = "status-update"
	// KindArtifactUpdate carries an artifact.
	KindArtifactUpdate Kind = "artifact-update"
)

// Record is one emitted event as kept in the history.
type Record struct {
	ID           string          `json:"id"`
	TaskID       string          `json:"taskId"`
	ContextID    string          `json:"contextId"`
	Kind         Kind            `json:"kind"`
	State        string          `json:"state,omitempty"`
	Final        bool            `json:"final"`
	Message      string          `json:"message,omitempty"`
	ArtifactName string          `json:"artifactName,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// RecordOf flattens an executor event. ID and CreatedAt are left for the
// store to assign.
func RecordOf(event a2a.Event) Record {
	var r Record
	switch ev := event.(type) {
	case *a2a.Task:
		r = Record{
			TaskID:    string(ev.ID),
			ContextID: ev.ContextID,
			Kind:      KindTask,
			State:     string(ev.Status.State),
			Message:   messageText(ev.Status.Message),
		}
	case *a2a.TaskStatusUpdateEvent:
		r = Record{
			TaskID:    string(ev.TaskID),
			ContextID: ev.ContextID,
			Kind:      KindStatusUpdate,
			State:     string(ev.Status.State),
			Final:     ev.Final,
			Message:   messageText(ev.Status.Message),
		}
	case *a2a.TaskArtifactUpdateEvent:
		r = Record{
			TaskID:    string(ev.TaskID),
			ContextID: ev.ContextID,
			Kind:      KindArtifactUpdate,
		}
		if ev.Artifact != nil {
			r.ArtifactName = ev.Artifact.Name
			r.Message = partsText(ev.Artifact.Parts)
		}
	}
	if payload, err := json.Marshal(event); err == nil {
		r.Payload = payload
	}
	return r
}

func messageText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	return partsText(msg.Parts)
}

func partsText(parts []a2a.Part) string {
	for _, p := range parts {
		if tp, ok := p.(a2a.TextPart); ok {
			return tp.Text
		}
	}
	return ""
}

// StreamValues lists the fields mirrored to the Redis event stream.
func (r Record) StreamValues() map[string]any {
	return map[string]any{
		"task_id":       r.TaskID,
		"context_id":    r.ContextID,
		"kind":          string(r.Kind),
		"state":         r.State,
		"final":         r.Final,
		"message":       r.Message,
		"artifact_name": r.ArtifactName,
		"payload":       string(r.Payload),
	}
}
