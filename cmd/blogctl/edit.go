package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rpupo63/verbavista-backend/draft"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errLoggedOut = errors.New("session expired, log in again; unsaved edits are still in the file")

const flushTimeout = 15 * time.Second

func newEditCmd(a *app) *cobra.Command {
	var (
		id         string
		quiescence time.Duration
		heartbeat  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Autosave a post file as a draft while you edit it",
		Long: "Watches <file> and saves it as a draft after it has been quiet for a while, " +
			"and at a fixed heartbeat while edits keep coming. The first save creates the post; " +
			"later saves update it. Stop with Ctrl-C; pending edits are flushed first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.runEdit(ctx, cmd.OutOrStdout(), args[0], id,
				draft.WithQuiescence(quiescence), draft.WithHeartbeat(heartbeat))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of an existing post to update")
	cmd.Flags().DurationVar(&quiescence, "quiet", draft.DefaultQuiescence, "idle time after the last change before saving")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", draft.DefaultHeartbeat, "save at least this often while editing")
	return cmd
}

func (a *app) runEdit(ctx context.Context, out io.Writer, file, id string, opts ...draft.Option) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	resolver := newCategoryResolver(a.client)
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	initial, err := resolver.workingState(ctx, doc)
	if err != nil {
		return err
	}

	out = &syncWriter{w: out}
	engine := draft.NewEngine(a.client, append(opts, draft.WithReporter(printReport(out)))...)

	loggedOut := make(chan struct{})
	var once sync.Once
	a.session.OnClear(func() {
		engine.CloseAll()
		once.Do(func() { close(loggedOut) })
	})

	var session *draft.Session
	if id != "" {
		session = engine.OpenExisting(id, initial)
	} else {
		session = engine.Open(initial)
	}
	// the file as opened counts as the first edit
	session.Edit(initial)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}
	defer watcher.Close()
	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	fmt.Fprintf(out, "watching %s, Ctrl-C to stop\n", file)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchDocument(gctx, watcher, path, func(doc document) {
			state, err := resolver.workingState(gctx, doc)
			if err != nil {
				fmt.Fprintf(out, "not saved: %v\n", err)
				return
			}
			session.Edit(state)
		}, func(err error) {
			fmt.Fprintf(out, "not saved: %v\n", err)
		})
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-loggedOut:
			return errLoggedOut
		}
	})
	waitErr := g.Wait()

	if a.session.Authenticated() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		result, err := session.SaveDraft(flushCtx)
		cancel()
		if err != nil && !errors.Is(err, draft.ErrSessionClosed) {
			waitErr = errors.Join(waitErr, fmt.Errorf("final save: %w", err))
		} else if result.ID != "" {
			fmt.Fprintf(out, "saved draft %s\n", result.ID)
		}
	}
	session.Close()
	session.Wait()

	return waitErr
}

// watchDocument calls onChange with the parsed file every time it is
// written or replaced, and onError when it cannot be read or parsed.
func watchDocument(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(document), onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			doc, err := readDocument(path)
			if err != nil {
				onError(err)
				continue
			}
			onChange(doc)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return newManualSaveCmd(a, "save <file>", "Save a post file as a draft once", models.StatusDraft)
}

func newPublishCmd(a *app) *cobra.Command {
	return newManualSaveCmd(a, "publish <file>", "Publish a post file; title and content are required", models.StatusPublished)
}

func newManualSaveCmd(a *app, use, short string, status models.PostStatus) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			state, err := newCategoryResolver(a.client).workingState(cmd.Context(), doc)
			if err != nil {
				return err
			}

			engine := draft.NewEngine(a.client)
			var session *draft.Session
			if id != "" {
				session = engine.OpenExisting(id, state)
			} else {
				session = engine.Open(state)
			}
			defer session.Close()

			var result draft.SaveResult
			if status == models.StatusPublished {
				result, err = session.Publish(cmd.Context())
			} else {
				result, err = session.SaveDraft(cmd.Context())
			}
			if err != nil {
				return err
			}

			switch {
			case result.Skipped:
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to save: title and content are empty")
			case result.Created:
				fmt.Fprintf(cmd.OutOrStdout(), "created %s post %s\n", status, result.ID)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s post %s\n", status, result.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of an existing post to update")
	return cmd
}

// printReport writes one line per persistence attempt.
func printReport(out io.Writer) func(draft.Report) {
	return func(r draft.Report) {
		line := fmt.Sprintf("%s %-10s %-8s", r.At.Local().Format("15:04:05"), r.Trigger, r.Outcome)
		if r.PostID != "" {
			line += " " + r.PostID
		}
		switch {
		case r.Err == nil:
		case errs.IsUnauthorized(r.Err):
			line += ": not logged in anymore"
		case errs.IsTransient(r.Err):
			line += ": " + r.Err.Error() + " (will retry on the next save)"
		default:
			line += ": " + r.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
