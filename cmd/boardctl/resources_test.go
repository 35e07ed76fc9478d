package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lodenross/boardctl/internal/comments"
	"github.com/lodenross/boardctl/internal/model"
)

func TestResourceCommandVerbs(t *testing.T) {
	verbs := []string{"list", "show", "create", "edit", "rm"}
	for _, root := range []*cobra.Command{projectCmd(), epicCmd(), issueCmd(), sprintCmd()} {
		for _, verb := range verbs {
			found := false
			for _, sub := range root.Commands() {
				if sub.Name() == verb {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s: missing %q subcommand", root.Name(), verb)
			}
		}
	}
}

func TestFindByID(t *testing.T) {
	items := []model.Issue{
		{ID: "is-1", ProjectID: "pr-1", Title: "First"},
		{ID: "is-2", ProjectID: "pr-1", Title: "Second"},
	}

	got, err := findByID(items, "is-2")
	if err != nil {
		t.Fatalf("findByID() error: %v", err)
	}
	if got.Title != "Second" {
		t.Errorf("Title = %q, want Second", got.Title)
	}

	if _, err := findByID(items, "is-9"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestIssueRow(t *testing.T) {
	row := issueRow(model.Issue{
		ID:       "is-1",
		Status:   model.StatusInProgress,
		Priority: model.PriorityHigh,
		Title:    "Fix login",
	})
	for _, want := range []string{"is-1", "in_progress", "high", "Fix login"} {
		if !strings.Contains(row, want) {
			t.Errorf("row = %q, missing %q", row, want)
		}
	}
}

func TestReportWarning(t *testing.T) {
	warn := &comments.PersistenceWarning{Key: "ep-1", Err: errors.New("disk full")}
	if err := reportWarning(warn); err != nil {
		t.Errorf("reportWarning(warning) = %v, want swallowed", err)
	}

	other := errors.New("boom")
	if err := reportWarning(other); !errors.Is(err, other) {
		t.Errorf("reportWarning(other) = %v, want passthrough", err)
	}
}
