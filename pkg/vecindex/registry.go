package vecindex

import (
	"slices"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/haivivi/vecdb/pkg/debounce"
	"github.com/haivivi/vecdb/pkg/gate"
)

// Registry maps storage paths to the state shared by every [Index] opened
// on that path. It also owns the debounce table that coalesces saves.
//
// Entries are never removed; a path opened once stays resident for the
// lifetime of the Registry.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	states map[string]any // *state[M]
	sched  *debounce.Scheduler
}

// DefaultRegistry is used by indexes whose Config has no Registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry. Tests use one per case to keep
// shared state from leaking between them.
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]any),
		sched:  debounce.New(),
	}
}

// Paths returns the registered storage paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.states))
	for p := range r.states {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Close stops scheduling saves. Saves still inside their debounce window
// are dropped and anything waiting on them is released; later saves fail
// with [ErrClosed]. Call [Index.Save] first to flush. Close is idempotent.
func (r *Registry) Close() {
	cancelled := r.sched.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, path := range cancelled {
		if st, ok := r.states[path].(interface{ saveGate() *gate.Gate }); ok {
			st.saveGate().Unlock()
		}
	}
}

// Len returns the number of registered storage paths.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// state is what handles on one storage path share.
type state[M any] struct {
	path string

	// gate is held while the initial load or a save is in flight.
	gate *gate.Gate

	mu      sync.RWMutex
	store   *orderedmap.OrderedMap[string, entry[M]]
	dirty   bool
	version uint64 // bumped by every mutation
}

func (st *state[M]) saveGate() *gate.Gate { return st.gate }

type entry[M any] struct {
	vector   []float32
	metadata M
}

func newState[M any](path string) *state[M] {
	return &state[M]{
		path:  path,
		gate:  gate.New(),
		store: orderedmap.New[string, entry[M]](),
	}
}

// acquire returns the state for path, creating it if needed. When created
// is true the caller owns the gate's initial hold and must release it once
// the state is loaded.
func acquire[M any](r *Registry, path string) (st *state[M], created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.states[path]; ok {
		st, ok := v.(*state[M])
		if !ok {
			return nil, false, ErrMetadataType
		}
		return st, false, nil
	}
	st = newState[M](path)
	r.states[path] = st
	return st, true, nil
}
