// Package queue defines the project lifecycle events exchanged over RabbitMQ
// and the consumer that records them.
package queue

import "time"

// ProjectEventsQueue is the durable queue lifecycle events are routed to.
const ProjectEventsQueue = "project.events"

// Event types.
const (
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"
)

// ProjectEvent is published after a project write has committed.  UserID is
// the authenticated user who made the change.
type ProjectEvent struct {
	Type      string    `json:"type"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	At        time.Time `json:"at"`
}
