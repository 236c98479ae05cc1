// Package events defines the notifications published about projects and evaluations.
package events

import (
	"time"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "voltgraph.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Project lifecycle events.
	ProjectCreatedEvent EventType = "project.created"
	ProjectDeletedEvent EventType = "project.deleted"

	// Graph and evaluation events.
	GraphChangedEvent        EventType = "graph.changed"
	EvaluationCompletedEvent EventType = "evaluation.completed"
	NodeFailedEvent          EventType = "node.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProjectID string         `json:"project_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GetProjectID returns the project the event is about.
func (b BaseEvent) GetProjectID() string {
	return b.ProjectID
}

type ProjectCreated struct {
	BaseEvent

	Name string `json:"name"`
}

func (p ProjectCreated) GetType() EventType {
	return ProjectCreatedEvent
}

type ProjectDeleted struct {
	BaseEvent
}

func (p ProjectDeleted) GetType() EventType {
	return ProjectDeletedEvent
}

// GraphChanged carries one graph store change record.
type GraphChanged struct {
	BaseEvent

	Change models.Change `json:"change"`
}

func (g GraphChanged) GetType() EventType {
	return GraphChangedEvent
}

type EvaluationCompleted struct {
	BaseEvent

	RunID      string          `json:"run_id"`
	Evaluated  []models.NodeID `json:"evaluated"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Warnings   int             `json:"warnings"`
	Cancelled  bool            `json:"cancelled,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

func (e EvaluationCompleted) GetType() EventType {
	return EvaluationCompletedEvent
}

type NodeFailed struct {
	BaseEvent

	RunID  string          `json:"run_id"`
	NodeID models.NodeID   `json:"node_id"`
	Kind   models.NodeKind `json:"kind"`
	Error  string          `json:"error"`
}

func (n NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

func NewBaseEvent(eventType EventType, projectID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProjectID: projectID,
		Metadata:  make(map[string]any),
	}
}
