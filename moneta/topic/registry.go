package topic

import "fmt"

// Registry resolves topic identifiers to their configuration. It is populated
// once by NewRegistry and never written afterwards, so lookups need no locking.
type Registry struct {
	topics   []Topic
	byName   map[string]int
	byPlural map[string]int
	ignored  []string
}

// NewRegistry validates topics and builds an immutable registry. Topic order is
// kept for listing.
func NewRegistry(topics []Topic, ignoredPrefixTokens []string) (*Registry, error) {
	r := &Registry{
		topics:   make([]Topic, 0, len(topics)),
		byName:   make(map[string]int, len(topics)),
		byPlural: make(map[string]int, len(topics)),
		ignored:  append([]string(nil), ignoredPrefixTokens...),
	}

	for _, t := range topics {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate topic name %q", t.Name)
		}
		r.byName[t.Name] = len(r.topics)
		r.topics = append(r.topics, t.clone())
	}

	// Plural names are resolved only after a miss on the canonical name, so a
	// plural equal to another topic's name could never be reached.
	for i, t := range r.topics {
		if t.PluralName == "" {
			continue
		}
		if j, ok := r.byName[t.PluralName]; ok && j != i {
			return nil, fmt.Errorf("topic %q: plural name %q collides with topic %q", t.Name, t.PluralName, r.topics[j].Name)
		}
		if j, dup := r.byPlural[t.PluralName]; dup {
			return nil, fmt.Errorf("topic %q: plural name %q already used by topic %q", t.Name, t.PluralName, r.topics[j].Name)
		}
		r.byPlural[t.PluralName] = i
	}

	for _, tok := range r.ignored {
		if tok == "" {
			return nil, fmt.Errorf("ignored prefix tokens must not be empty")
		}
	}

	return r, nil
}

// Topic looks up a topic by its canonical name.
func (r *Registry) Topic(name string) (Topic, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Topic{}, false
	}
	return r.topics[i].clone(), true
}

// FindByPlural looks up a topic by its plural name.
func (r *Registry) FindByPlural(name string) (Topic, bool) {
	i, ok := r.byPlural[name]
	if !ok {
		return Topic{}, false
	}
	return r.topics[i].clone(), true
}

// IgnoredPrefixTokens returns the path tokens stripped ahead of the topic.
func (r *Registry) IgnoredPrefixTokens() []string {
	return append([]string(nil), r.ignored...)
}

// Topics returns every topic in registration order.
func (r *Registry) Topics() []Topic {
	out := make([]Topic, len(r.topics))
	for i, t := range r.topics {
		out[i] = t.clone()
	}
	return out
}

func (r *Registry) Len() int { return len(r.topics) }
