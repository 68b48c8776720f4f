/*
Package dsl provides a fluent Go API for constructing flow documents in code.

It is useful for fixtures, tests and flows generated by programs. Every node and
connection goes through the editor, so the built document is exactly what an
interactive session would have produced: option destinations become option
connections and end options are wired to an end node.

Example usage:

	b := dsl.New("support", "Support")

	b.Start("start").Go("menu")

	b.Menu("menu").
		Title("Principal").
		Message("¿En qué podemos ayudarte?").
		OptionTo("Ventas", "sales").
		OptionEnd("Salir")

	b.System("sales").Message("Un ejecutivo te contactará.").Go("bye")
	b.End("bye").Label("Fin")

	flow, err := b.Build()
*/
package dsl
