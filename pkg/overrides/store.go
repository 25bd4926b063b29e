package overrides

import (
	"context"
	"sync"

	"github.com/compozy/overlay/pkg/logger"
)

const (
	msgInvalidSetPath   = "Invalid path. Use dot notation (e.g. foo.bar)."
	msgInvalidUnsetPath = "Invalid path."
)

// Store owns one override tree. The zero value is not usable; call NewStore.
// All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	root       map[string]Value
	callbacks  []func(Value)
	callbackMu sync.RWMutex
	log        logger.Logger
}

type StoreOption func(*Store)

// WithLogger sets the logger used for mutation records.
func WithLogger(l logger.Logger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore returns a store holding an empty tree.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{root: make(map[string]Value)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.FromContext(context.Background())
	}
	return s
}

// All returns a copy of the current tree.
func (s *Store) All() Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Object(s.root).Clone()
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.root) == 0
}

// Reset drops every override.
func (s *Store) Reset() {
	s.mu.Lock()
	changed := len(s.root) > 0
	s.root = make(map[string]Value)
	s.mu.Unlock()
	s.log.Debug("Cleared overrides")
	if changed {
		s.notify()
	}
}

// Get reads the override stored at a dot-path.
func (s *Store) Get(raw string) (Value, bool) {
	path, err := ParsePath(raw)
	if err != nil {
		return Value{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := Object(s.root).Lookup(path)
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// Set validates raw as a dot-path and stores v there.
func (s *Store) Set(raw string, v Value) error {
	path, err := ParsePath(raw)
	if err != nil {
		return &PathError{Raw: raw, Message: msgInvalidSetPath}
	}
	s.SetAt(path, v)
	return nil
}

// Unset validates raw as a dot-path and removes the override there.
func (s *Store) Unset(raw string) (bool, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return false, &PathError{Raw: raw, Message: msgInvalidUnsetPath}
	}
	return s.UnsetAt(path), nil
}

// SetAt stores v at path. Intermediate positions that do not hold an object
// are replaced by empty objects.
func (s *Store) SetAt(path Path, v Value) {
	if len(path) == 0 {
		return
	}
	s.mu.Lock()
	cursor := s.root
	for _, key := range path[:len(path)-1] {
		next, ok := cursor[key]
		if !ok || next.kind != KindObject {
			next = EmptyObject()
			cursor[key] = next
		}
		cursor = next.fields
	}
	cursor[path[len(path)-1]] = v.Clone()
	s.mu.Unlock()
	s.log.Debug("Set override", "path", path.String(), "kind", v.Kind().String())
	s.notify()
}

// UnsetAt removes the override at path and prunes ancestors left empty. It
// reports false, without modifying anything, when path does not exist.
func (s *Store) UnsetAt(path Path) bool {
	if len(path) == 0 {
		return false
	}
	type frame struct {
		node map[string]Value
		key  string
	}
	s.mu.Lock()
	stack := make([]frame, 0, len(path)-1)
	cursor := s.root
	for _, key := range path[:len(path)-1] {
		next, ok := cursor[key]
		if !ok || next.kind != KindObject {
			s.mu.Unlock()
			return false
		}
		stack = append(stack, frame{node: cursor, key: key})
		cursor = next.fields
	}
	leaf := path[len(path)-1]
	if _, ok := cursor[leaf]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(cursor, leaf)
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		child := f.node[f.key]
		if child.kind != KindObject || len(child.fields) > 0 {
			break
		}
		delete(f.node, f.key)
	}
	s.mu.Unlock()
	s.log.Debug("Removed override", "path", path.String())
	s.notify()
	return true
}

// Apply returns base with the override tree merged on top. base is not
// modified; with no overrides base itself is returned.
func (s *Store) Apply(base map[string]any) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.root) == 0 {
		return base
	}
	return MergeOnto(base, Object(s.root))
}

// OnChange registers a callback invoked with a snapshot of the tree after
// every mutation.
func (s *Store) OnChange(callback func(Value)) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

func (s *Store) notify() {
	s.callbackMu.RLock()
	callbacks := make([]func(Value), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.callbackMu.RUnlock()
	if len(callbacks) == 0 {
		return
	}
	snapshot := s.All()
	for _, callback := range callbacks {
		if callback != nil {
			callback(snapshot)
		}
	}
}
