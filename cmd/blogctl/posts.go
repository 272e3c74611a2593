package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rpupo63/verbavista-backend/client"
	"github.com/spf13/cobra"
)

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, search, show and delete posts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your posts, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := a.client.ListPosts(cmd.Context())
				if err != nil {
					return err
				}
				return printPosts(cmd.OutOrStdout(), posts)
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Search titles, content and tags",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := a.client.SearchPosts(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printPosts(cmd.OutOrStdout(), posts)
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a post in the editable file format",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.GetPost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), documentFromPost(post).render())
				return err
			},
		},
		newPullCmd(a),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.client.DeletePost(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

// newPullCmd writes a post to a file that `blogctl edit --id` can pick up.
func newPullCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull <id> <file>",
		Short: "Write a post to a local file for editing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.client.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if !force {
				flags |= os.O_EXCL
			}
			f, err := os.OpenFile(args[1], flags, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(f, documentFromPost(post).render()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, edit it with: blogctl edit %s --id %s\n", args[1], args[1], post.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func printPosts(out io.Writer, posts []client.Post) error {
	if len(posts) == 0 {
		_, err := fmt.Fprintln(out, "no posts")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tUPDATED\tTITLE\tTAGS")
	for _, p := range posts {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Status, p.UpdatedAt.Local().Format("2006-01-02 15:04"), title, strings.Join(p.Tags, ", "))
	}
	return tw.Flush()
}
