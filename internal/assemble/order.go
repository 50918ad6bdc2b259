package assemble

import "slices"

// Reorder reconciles the persistent stack order with a new selection.
// Selected names keep their relative order and come first, newly selected
// names follow in selection order, and unselected names keep their order at
// the end so they reappear in place when reselected.
func Reorder(order, selection []string) []string {
	current := make([]string, 0, len(selection))
	for _, name := range order {
		if slices.Contains(selection, name) && !slices.Contains(current, name) {
			current = append(current, name)
		}
	}
	for _, name := range selection {
		if !slices.Contains(current, name) {
			current = append(current, name)
		}
	}

	out := current
	for _, name := range order {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// StackOrder is the bottom-to-top order of the selected categories. When the
// order shares nothing with a non-empty selection, the selection is used as is.
func StackOrder(order, selection []string) []string {
	var stack []string
	for _, name := range order {
		if slices.Contains(selection, name) {
			stack = append(stack, name)
		}
	}
	if len(stack) == 0 && len(selection) > 0 {
		return append([]string(nil), selection...)
	}
	return stack
}

// SameSet reports whether a and b hold the same names, ignoring order and
// duplicates.
func SameSet(a, b []string) bool {
	for _, name := range a {
		if !slices.Contains(b, name) {
			return false
		}
	}
	for _, name := range b {
		if !slices.Contains(a, name) {
			return false
		}
	}
	return true
}
