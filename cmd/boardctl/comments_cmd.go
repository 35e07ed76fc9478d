package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lodenross/boardctl/internal/comments"
	"github.com/lodenross/boardctl/internal/model"
	"github.com/lodenross/boardctl/internal/tui"
)

func commentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "comment", Short: "Manage comment threads (stored locally)"}
	cmd.AddCommand(commentAddCmd())
	cmd.AddCommand(commentLikeCmd())
	cmd.AddCommand(commentShowCmd())
	return cmd
}

// reportWarning prints a persistence warning without failing the command:
// the comment is live in memory, only durability was lost.
func reportWarning(err error) error {
	var warn *comments.PersistenceWarning
	if errors.As(err, &warn) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warn)
		return nil
	}
	return err
}

func commentAddCmd() *cobra.Command {
	var text, replyTo string
	cmd := &cobra.Command{
		Use:   "add <entity-id>",
		Short: "Add a comment to an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			threads, err := a.openThreads()
			if err != nil {
				return err
			}
			c, err := threads.Add(args[0], text, a.sess.UserID(), replyTo)
			if err != nil {
				if err = reportWarning(err); err != nil {
					return err
				}
			}
			fmt.Printf("added comment %s\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "comment text (required)")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "comment id to reply to")
	return cmd
}

func commentLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <entity-id> <comment-id>",
		Short: "Toggle your like on a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			threads, err := a.openThreads()
			if err != nil {
				return err
			}
			c, err := threads.ToggleLike(args[0], args[1], a.sess.UserID())
			if err != nil {
				if err = reportWarning(err); err != nil {
					return err
				}
			}
			fmt.Printf("%s now has %d like(s)\n", c.ID, c.Likes)
			return nil
		},
	}
}

func commentShowCmd() *cobra.Command {
	var flagJSON bool
	cmd := &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Show an entity's comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			threads, err := a.openThreads()
			if err != nil {
				return err
			}
			thread, err := threads.Get(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				if thread == nil {
					fmt.Println("[]")
					return nil
				}
				return printJSON(thread)
			}
			if len(thread) == 0 {
				fmt.Println("no comments")
				return nil
			}
			printThread(thread, 0)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "output JSON")
	return cmd
}

func printThread(nodes []*comments.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range nodes {
		fmt.Printf("%s%s  %s (%s, %d like(s))\n", indent, c.ID, c.Text, c.Author, c.Likes)
		printThread(c.Replies, depth+1)
	}
}

func boardCmd() *cobra.Command {
	var flagProject string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive issue board",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			c := newController[model.Issue](a, "issues", "issue")
			defer c.Close()

			p := tea.NewProgram(tui.New(c, flagProject), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&flagProject, "project", "", "project id stamped on issues created from the board")
	return cmd
}
