package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/cli"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/tui"
	"github.com/jPabloBC/ingenit-flows/pkg/observability"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/jPabloBC/ingenit-flows/pkg/session"
	"golang.org/x/term"
)

// openFile loads a flow document from disk into an editor.
func openFile(path string, extra ...flows.Option) (*flows.Editor, error) {
	flow, warnings, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("flow document repaired on load", "path", path, "warning", w)
	}
	opts, err := editorOptions()
	if err != nil {
		return nil, err
	}
	ed := flows.New(flow, append(opts, extra...)...)
	for _, w := range ed.LoadWarnings() {
		logger.Warn("flow graph repaired on load", "path", path, "warning", w)
	}
	return ed, nil
}

// openManager connects the configured store and wraps it in a session manager.
// The caller must close the returned backend.
func openManager(ctx context.Context, metrics *observability.Metrics) (*session.Manager, *cli.Backend, error) {
	backend, err := cli.OpenBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	opts, err := editorOptions()
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	hooks := observability.LogHooks(logger)
	if metrics != nil {
		hooks = hooks.Merge(metrics.Hooks())
	}
	opts = append(opts, flows.WithHooks(hooks))

	manager := session.NewManager(backend.Store,
		session.WithLocker(backend.Locker),
		session.WithLogger(logger),
		session.WithEditorOptions(opts...),
	)
	return manager, backend, nil
}

// markdownRenderer returns a glamour renderer when w is a terminal and nil
// otherwise, so piped output stays plain markdown.
func markdownRenderer(w io.Writer, plain bool) func(string) (string, error) {
	if plain {
		return nil
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	return tui.NewRenderer(width)
}

func closeBackend(b *cli.Backend) {
	if err := b.Close(); err != nil {
		logger.Warn("failed to close storage", "err", err)
	}
}

func errFlowInvalid(id string) error {
	return fmt.Errorf("flow %s has errors", id)
}
