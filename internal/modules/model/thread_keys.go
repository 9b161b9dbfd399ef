package model

// ThreadKeySet is the set of candidate thread-affiliation keys a message
// query matches against. Local chat thread ids and remote thread ids are
// equally valid members. Insertion order is kept; empty keys are ignored.
type ThreadKeySet struct {
	keys []string
	seen map[string]struct{}
}

func NewThreadKeySet(keys ...string) ThreadKeySet {
	s := ThreadKeySet{seen: map[string]struct{}{}}
	s.Add(keys...)
	return s
}

func (s *ThreadKeySet) Add(keys ...string) {
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := s.seen[k]; ok {
			continue
		}
		s.seen[k] = struct{}{}
		s.keys = append(s.keys, k)
	}
}

// Union adds every key of other.
func (s *ThreadKeySet) Union(other ThreadKeySet) {
	s.Add(other.keys...)
}

func (s ThreadKeySet) Has(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s ThreadKeySet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s ThreadKeySet) Len() int { return len(s.keys) }

func (s ThreadKeySet) Empty() bool { return len(s.keys) == 0 }
