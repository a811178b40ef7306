// Package keymap maps key presses to command IDs per focus context.
package keymap

import "sort"

// Binding maps a key to a command in a context.
type Binding struct {
	Key     string // bubbletea key string, e.g. "ctrl+c", "shift+tab"
	Command string
	Context string
}

// Registry resolves keys to commands. Lookups try the active context
// first and fall back to global bindings.
type Registry struct {
	bindings  []Binding
	byContext map[string]map[string]string // context -> key -> command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byContext: make(map[string]map[string]string)}
}

// RegisterBinding adds b. A later binding for the same key and context
// replaces the earlier one.
func (r *Registry) RegisterBinding(b Binding) {
	keys, ok := r.byContext[b.Context]
	if !ok {
		keys = make(map[string]string)
		r.byContext[b.Context] = keys
	}
	if old, ok := keys[b.Key]; ok {
		r.remove(b.Context, b.Key, old)
	}
	keys[b.Key] = b.Command
	r.bindings = append(r.bindings, b)
}

func (r *Registry) remove(context, key, command string) {
	out := r.bindings[:0]
	for _, b := range r.bindings {
		if b.Context == context && b.Key == key && b.Command == command {
			continue
		}
		out = append(out, b)
	}
	r.bindings = out
}

// SetUserOverride binds key to cmdID in every context that already has a
// binding for cmdID. It reports whether any context matched.
func (r *Registry) SetUserOverride(key, cmdID string) bool {
	var contexts []string
	for ctx, keys := range r.byContext {
		for _, c := range keys {
			if c == cmdID {
				contexts = append(contexts, ctx)
				break
			}
		}
	}
	sort.Strings(contexts)
	for _, ctx := range contexts {
		r.RegisterBinding(Binding{Key: key, Command: cmdID, Context: ctx})
	}
	return len(contexts) > 0
}

// Lookup returns the command bound to key in context, or in the global
// context.
func (r *Registry) Lookup(key, context string) (string, bool) {
	if cmd, ok := r.byContext[context][key]; ok {
		return cmd, true
	}
	if context != ContextGlobal {
		if cmd, ok := r.byContext[ContextGlobal][key]; ok {
			return cmd, true
		}
	}
	return "", false
}

// BindingsForContext returns the bindings of one context in registration
// order.
func (r *Registry) BindingsForContext(context string) []Binding {
	var out []Binding
	for _, b := range r.bindings {
		if b.Context == context {
			out = append(out, b)
		}
	}
	return out
}

// KeysFor returns the keys bound to command in context, first registered
// first.
func (r *Registry) KeysFor(context, command string) []string {
	var keys []string
	for _, b := range r.BindingsForContext(context) {
		if b.Command == command {
			keys = append(keys, b.Key)
		}
	}
	return keys
}
