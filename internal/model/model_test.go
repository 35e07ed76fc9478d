package model

import (
	"strings"
	"testing"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusOpen, true},
		{StatusInProgress, true},
		{StatusReviewing, true},
		{StatusBlocked, true},
		{StatusDone, true},
		{StatusCanceled, true},
		{Status("open"), true},
		{Status(""), false},
		{Status("invalid"), false},
		{Status("Open"), false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestPriority_IsValid(t *testing.T) {
	tests := []struct {
		priority Priority
		valid    bool
	}{
		{PriorityLow, true},
		{PriorityMedium, true},
		{PriorityHigh, true},
		{PriorityCritical, true},
		{Priority(""), false},
		{Priority("urgent"), false},
		{Priority("High"), false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			if got := tt.priority.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestIssue_Validate(t *testing.T) {
	tests := []struct {
		name    string
		issue   Issue
		wantErr string
	}{
		{
			name:  "valid",
			issue: Issue{ProjectID: "pr-1", Title: "Fix login", Status: StatusOpen, Priority: PriorityHigh},
		},
		{
			name:    "blank title",
			issue:   Issue{ProjectID: "pr-1", Title: "   "},
			wantErr: "title is required",
		},
		{
			name:    "missing project",
			issue:   Issue{Title: "Fix login"},
			wantErr: "project is required",
		},
		{
			name:    "bad status",
			issue:   Issue{ProjectID: "pr-1", Title: "Fix login", Status: Status("pending")},
			wantErr: "invalid issue status",
		},
		{
			name:    "bad priority",
			issue:   Issue{ProjectID: "pr-1", Title: "Fix login", Priority: Priority("urgent")},
			wantErr: "invalid issue priority",
		},
		{
			name:  "empty status and priority allowed on drafts",
			issue: Issue{ProjectID: "pr-1", Title: "Fix login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.issue.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSprint_Validate_EndBeforeStart(t *testing.T) {
	s := Sprint{
		ProjectID: "pr-1",
		Name:      "Sprint 4",
		State:     SprintPlanned,
	}
	s.StartsAt = s.StartsAt.AddDate(0, 0, 14)
	s.EndsAt = s.StartsAt.AddDate(0, 0, -7)

	if err := s.Validate(); err == nil {
		t.Error("expected error when end precedes start")
	}
}

func TestProject_SearchText(t *testing.T) {
	p := Project{Name: "Apollo", Description: "Mission tracker"}
	got := p.SearchText()
	if !strings.Contains(got, "Apollo") || !strings.Contains(got, "Mission tracker") {
		t.Errorf("SearchText() = %q, want name and description present", got)
	}
}
