// Package model defines the entity types served by the board backend.
//
// Every entity carries an opaque string ID assigned by the backend. A draft
// built on the client has an empty ID until creation succeeds. The Resource
// interface is the contract the generic list controller works against: it
// never touches concrete fields, only what the interface exposes.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FilterAll is the wildcard value for status and priority filters.
const FilterAll = "all"

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusReviewing  Status = "reviewing"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusReviewing, StatusBlocked, StatusDone, StatusCanceled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type SprintState string

const (
	SprintPlanned   SprintState = "planned"
	SprintActive    SprintState = "active"
	SprintCompleted SprintState = "completed"
)

func (s SprintState) IsValid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// Resource is what the list controller needs from an entity type: identity,
// the text fields search matches against, the values the status and priority
// filters compare, and local required-field validation.
type Resource interface {
	ResourceID() string
	SearchText() string
	StatusValue() string
	PriorityValue() string
	Validate() error
}

// Project is the top-level container for epics, issues, and sprints.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Lead        string    `json:"lead,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p Project) ResourceID() string    { return p.ID }
func (p Project) SearchText() string    { return p.Name + " " + p.Description }
func (p Project) StatusValue() string   { return string(p.Status) }
func (p Project) PriorityValue() string { return "" }

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("project name is required")
	}
	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("invalid project status: %s", p.Status)
	}
	return nil
}

// Epic groups related issues within a project.
type Epic struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e Epic) ResourceID() string    { return e.ID }
func (e Epic) SearchText() string    { return e.Title + " " + e.Description }
func (e Epic) StatusValue() string   { return string(e.Status) }
func (e Epic) PriorityValue() string { return string(e.Priority) }

func (e Epic) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("epic title is required")
	}
	if strings.TrimSpace(e.ProjectID) == "" {
		return errors.New("epic project is required")
	}
	if e.Status != "" && !e.Status.IsValid() {
		return fmt.Errorf("invalid epic status: %s", e.Status)
	}
	if e.Priority != "" && !e.Priority.IsValid() {
		return fmt.Errorf("invalid epic priority: %s", e.Priority)
	}
	return nil
}

// Issue is a unit of work. EpicID and SprintID are optional references.
type Issue struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	EpicID      string    `json:"epic_id,omitempty"`
	SprintID    string    `json:"sprint_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Assignee    string    `json:"assignee,omitempty"`
	Points      int       `json:"points,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i Issue) ResourceID() string    { return i.ID }
func (i Issue) SearchText() string    { return i.Title + " " + i.Description + " " + i.Assignee }
func (i Issue) StatusValue() string   { return string(i.Status) }
func (i Issue) PriorityValue() string { return string(i.Priority) }

func (i Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return errors.New("issue title is required")
	}
	if strings.TrimSpace(i.ProjectID) == "" {
		return errors.New("issue project is required")
	}
	if i.Status != "" && !i.Status.IsValid() {
		return fmt.Errorf("invalid issue status: %s", i.Status)
	}
	if i.Priority != "" && !i.Priority.IsValid() {
		return fmt.Errorf("invalid issue priority: %s", i.Priority)
	}
	return nil
}

// Sprint is a time-boxed iteration within a project.
type Sprint struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"project_id"`
	Name      string      `json:"name"`
	Goal      string      `json:"goal,omitempty"`
	State     SprintState `json:"state"`
	StartsAt  time.Time   `json:"starts_at"`
	EndsAt    time.Time   `json:"ends_at"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s Sprint) ResourceID() string    { return s.ID }
func (s Sprint) SearchText() string    { return s.Name + " " + s.Goal }
func (s Sprint) StatusValue() string   { return string(s.State) }
func (s Sprint) PriorityValue() string { return "" }

func (s Sprint) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("sprint name is required")
	}
	if strings.TrimSpace(s.ProjectID) == "" {
		return errors.New("sprint project is required")
	}
	if s.State != "" && !s.State.IsValid() {
		return fmt.Errorf("invalid sprint state: %s", s.State)
	}
	if !s.EndsAt.IsZero() && !s.StartsAt.IsZero() && s.EndsAt.Before(s.StartsAt) {
		return errors.New("sprint end must not precede start")
	}
	return nil
}
