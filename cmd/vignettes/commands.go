package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BorisDmv/vignettes/internal/filter"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/settings"
)

func (a *app) listCmd() *cobra.Command {
	var (
		tag, query, cursor string
		limit              int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the posts, optionally narrowed by tag and search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, sess, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBackend(b)

			var posts []models.Post
			next := ""
			switch {
			case limit > 0 && b.REST != nil && tag == "" && query == "":
				// The server pages for us.
				page, err := b.REST.Page(cmd.Context(), cursor, limit)
				if err != nil {
					return err
				}
				posts, next = page.Posts, page.NextCursor
			default:
				if err := sess.State.Refresh(cmd.Context()); err != nil {
					return err
				}
				posts = filter.Newest(filter.Filter(sess.State.Posts(), tag, query))
				if limit > 0 {
					posts, next = filter.Paginate(posts, cursor, limit)
				}
			}

			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range posts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d comments\t%s\n",
					p.ID, p.Date, p.Title, len(p.Comments), strings.Join(p.Hashtags, " "))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if next != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nMore: --cursor %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only posts with this hashtag")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only posts whose title or content contains this")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many posts, newest first")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue after this post id")
	return cmd
}

func (a *app) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "Print every hashtag with its post count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, sess, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBackend(b)
			if err := sess.State.Refresh(cmd.Context()); err != nil {
				return err
			}
			for _, t := range sess.Tags() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", t.Tag, t.Count)
			}
			return nil
		},
	}
}

func (a *app) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the assistant about the blog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, sess, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBackend(b)
			if err := sess.State.Refresh(cmd.Context()); err != nil {
				return err
			}
			answer, err := sess.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

// loginCmd checks a credential pair without starting the UI. The
// password is read from the first line of stdin.
func (a *app) loginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check the author's credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, sess, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBackend(b)
			if username == "" {
				username = sess.Settings.Get().Username
			}

			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			if err := sess.Login(cmd.Context(), username, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "author username (defaults to the stored one)")
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the local settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := settings.Load(a.settingsPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, key := range settings.Keys() {
				value, err := set.Value(key)
				if err != nil {
					return err
				}
				if key == "password" {
					value = strings.Repeat("*", len(value))
				}
				fmt.Fprintf(w, "%s\t%s\n", key, value)
			}
			return w.Flush()
		},
	}, &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := settings.Load(a.settingsPath)
			if err != nil {
				return err
			}
			if err := set.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s.\n", args[0], set.Path())
			return nil
		},
	})
	return cmd
}
