/*
Package flows is the editor core of conversational flows: graphs of menus,
messages, decisions, delays and start/end markers joined by labeled connections
that carry a manual validation status.

The Editor receives a flow document, lets the host mutate an in-memory copy, and
hands the flattened document back through injected callbacks. It never persists
anything by itself and performs no I/O.

# Concept

A Flow (see pkg/domain) is the persisted interchange document. Opening it in an
Editor materializes a graph where every node carries a typed payload. Structural
edits keep menu options and their connections in agreement. Validate runs the
structural rules and returns advisory findings; an invalid flow can still be saved.

# Usage

	ed := flows.New(stored,
		flows.WithSaveHandler(func(ctx context.Context, f *domain.Flow) error {
			return store.Save(ctx, f)
		}),
	)

	menu, _ := ed.AddNode(domain.KindMenu, nil)
	end, _ := ed.AddNode(domain.KindEnd, nil)
	if _, err := ed.Connect(menu, end, "option-1"); err != nil {
		log.Fatal(err)
	}

	report, _ := ed.Validate(ctx)
	for _, f := range report.Findings {
		fmt.Println(f.Level, f.Message)
	}

	if _, err := ed.Save(ctx); err != nil {
		log.Fatal(err)
	}
*/
package flows
