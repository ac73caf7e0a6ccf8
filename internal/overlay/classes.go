package overlay

import (
	"sort"
	"strings"
)

// ClassSet is the set of presentation classes on one element. Values are
// never mutated in place: Toggle and With return new sets.
type ClassSet map[string]bool

// Classes builds a set from names.
func Classes(names ...string) ClassSet {
	out := make(ClassSet, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// Has reports whether name is present.
func (s ClassSet) Has(name string) bool { return s[name] }

// Toggle returns a copy of s with name flipped.
func Toggle(s ClassSet, name string) ClassSet {
	out := s.clone()
	if out[name] {
		delete(out, name)
	} else {
		out[name] = true
	}
	return out
}

// With returns a copy of s with name present or absent according to on.
func With(s ClassSet, name string, on bool) ClassSet {
	out := s.clone()
	if on {
		out[name] = true
	} else {
		delete(out, name)
	}
	return out
}

func (s ClassSet) clone() ClassSet {
	out := make(ClassSet, len(s)+1)
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

// String lists the classes sorted, space separated.
func (s ClassSet) String() string {
	names := make([]string, 0, len(s))
	for k, v := range s {
		if v {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}
