package generic

// Set is an unordered collection of distinct items. Sets are not safe for concurrent use.
type Set[T comparable] interface {
	// Add returns true if item was not already present.
	Add(item T) bool
	Clear()
	// Contains returns true if every one of items is present.
	Contains(items ...T) bool
	Clone() Set[T]
	Count() int
	// Remove returns true if item was present.
	Remove(item T) bool
	// ToSlice returns the items in no particular order.
	ToSlice() []T
}

type set[T comparable] map[T]Void

// NewSet works for any comparable T, including interface types; adding an interface value whose dynamic type isn't
// comparable panics.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(set[T], len(items))
	for _, item := range items {
		s[item] = Void{}
	}
	return &s
}

func (s *set[T]) Add(item T) bool {
	if _, found := (*s)[item]; found {
		return false
	}
	(*s)[item] = Void{}
	return true
}

func (s *set[T]) Clear() {
	*s = make(set[T])
}

func (s *set[T]) Clone() Set[T] {
	return NewSet(s.ToSlice()...)
}

func (s *set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := (*s)[item]; !found {
			return false
		}
	}
	return true
}

func (s *set[T]) Count() int {
	return len(*s)
}

func (s *set[T]) Remove(item T) bool {
	if _, found := (*s)[item]; !found {
		return false
	}
	delete(*s, item)
	return true
}

func (s *set[T]) ToSlice() []T {
	items := make([]T, 0, len(*s))
	for item := range *s {
		items = append(items, item)
	}
	return items
}
