package ir

// FreeVars returns the variable names n references that are not already
// in bound. The compiler calls this to compute a closure's capture list
// for constructs the lowering pass does not itself turn into an
// InlineFunc -- for/quantified/simple-map bodies and path predicates all
// become nested closures at compile time (§4.F "closures"), and each one
// needs exactly this same free-variable computation InlineFunc already
// gets from the lowering pass.
func FreeVars(n Node, bound map[string]bool) []string {
	return freeVars(n, cloneSet(bound))
}
