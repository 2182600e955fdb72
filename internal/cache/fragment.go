package cache

// FragmentMatcher decides whether a fragment's type condition applies to an
// object of a given concrete type, using the schema's possible types.
type FragmentMatcher struct {
	possible map[string]map[string]struct{}
}

// NewFragmentMatcher builds a matcher from abstract -> concrete type names.
func NewFragmentMatcher(possibleTypes map[string][]string) *FragmentMatcher {
	m := &FragmentMatcher{possible: make(map[string]map[string]struct{}, len(possibleTypes))}
	for abstract, concretes := range possibleTypes {
		set := make(map[string]struct{}, len(concretes))
		for _, c := range concretes {
			set[c] = struct{}{}
		}
		m.possible[abstract] = set
	}
	return m
}

// Match reports whether condition applies to typename. An empty typename
// cannot be checked; it matches with heuristic=true.
func (m *FragmentMatcher) Match(typename, condition string) (matched, heuristic bool) {
	if condition == "" || typename == condition {
		return true, false
	}
	if typename == "" {
		return true, true
	}
	if m == nil {
		return false, false
	}
	_, ok := m.possible[condition][typename]
	return ok, false
}
