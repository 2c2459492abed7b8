package physics

// arena stores values in reusable slots addressed by (index, generation).
// A slot's generation is bumped on removal, so stale handles never resolve
// even after the index is handed out again.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

func (a *arena[T]) insert(value T) (index, generation uint32) {
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		// generation 0 is reserved for the zero handle
		a.slots = append(a.slots, slot[T]{generation: 1})
	}
	s := &a.slots[index]
	s.value = value
	s.occupied = true
	a.count++
	return index, s.generation
}

func (a *arena[T]) get(index, generation uint32) (*T, bool) {
	if int(index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[index]
	if !s.occupied || s.generation != generation {
		return nil, false
	}
	return &s.value, true
}

func (a *arena[T]) remove(index, generation uint32) (T, bool) {
	var zero T
	if _, ok := a.get(index, generation); !ok {
		return zero, false
	}
	s := &a.slots[index]
	value := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	a.free = append(a.free, index)
	a.count--
	return value, true
}

func (a *arena[T]) len() int {
	return a.count
}

// each visits occupied slots in index order until fn returns false.
func (a *arena[T]) each(fn func(index, generation uint32, value *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(uint32(i), s.generation, &s.value) {
			return
		}
	}
}
