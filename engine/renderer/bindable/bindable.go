// Package bindable defines the capability shared by GPU objects that must be made current
// before state-setting or draw calls target them.
package bindable

// Bindable is a GPU object that can be made the active target of its binding point(s) and
// returned to the neutral binding afterwards. Binding carries no ownership.
//
// Callers must not interleave binds of two resources sharing a binding point without an
// intervening Unbind.
type Bindable interface {
	// Bind makes the object's handle(s) current.
	Bind()

	// Unbind resets the object's binding point(s) to the neutral handle 0.
	Unbind()
}

// Use binds resources in order, runs fn, then unbinds them in reverse order.
// Unbinding happens even if fn panics.
//
// Parameters:
//   - fn: the work to run while every resource is bound
//   - resources: the resources to bind, outermost first
func Use(fn func(), resources ...Bindable) {
	for i, r := range resources {
		r.Bind()
		defer resources[i].Unbind()
	}
	fn()
}
