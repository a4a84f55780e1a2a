package expr

// Passes evaluates n against b and reports whether it satisfies a filter
// predicate: true if any element of the evaluated result is nonzero
// (logical truth), per spec.md §4.6. An empty-sized result never passes.
func Passes(n Node, b Binding) (bool, error) {
	size := n.Size(b)
	typ := n.Type()

	for i := 0; i < size; i++ {
		v, err := n.Eval(b, i)
		if err != nil {
			return false, err
		}
		if truthy(v, typ) {
			return true, nil
		}
	}

	return false, nil
}
