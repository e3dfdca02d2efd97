package jsonld

import "sort"

// Action tells Walk how to continue after visiting an object member.
type Action int

const (
	// Descend visits the member's children, if any.
	Descend Action = iota
	// Skip leaves the member's children unvisited.
	Skip
	// Stop ends the traversal.
	Stop
)

// VisitFunc is called once per object member found at any depth.
type VisitFunc func(key string, val Value) Action

// Walk visits every object member reachable from v, depth first, through
// nested objects and arrays. Members of one object are visited in key order
// so traversals are deterministic. It reports whether fn requested Stop.
func Walk(v Value, fn VisitFunc) bool {
	switch v.Kind {
	case Object:
		keys := make([]string, 0, len(v.Object))
		for key := range v.Object {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			child := v.Object[key]
			switch fn(key, child) {
			case Stop:
				return true
			case Skip:
				continue
			case Descend:
				if Walk(child, fn) {
					return true
				}
			}
		}
	case Array:
		for _, item := range v.Array {
			if Walk(item, fn) {
				return true
			}
		}
	}
	return false
}
