//go:build galaxydebug

package physics

// assertFinite panics when a step leaves the body in a non-finite state.
// Only compiled with -tags galaxydebug.
func assertFinite(b *Body) {
	if err := b.Check(); err != nil {
		panic(err)
	}
}
