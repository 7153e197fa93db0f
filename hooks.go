package dbobj

import (
	"fmt"
	"sort"
	"sync"
)

const DefaultPriority = 10

// FilterFunc receives the current value plus the extra dispatch arguments
// and returns the value handed to the next filter.
type FilterFunc func(value any, args ...any) any

type ActionFunc func(args ...any)

type hookEntry[F any] struct {
	fn       F
	priority int
}

// Hooks is a named filter and action dispatcher. Hooks run by ascending
// priority, then in registration order.
type Hooks struct {
	mu      sync.RWMutex
	filters map[string][]hookEntry[FilterFunc]
	actions map[string][]hookEntry[ActionFunc]
}

// DefaultHooks is used by objects created without WithHooks.
var DefaultHooks = NewHooks()

func NewHooks() *Hooks {
	return &Hooks{
		filters: make(map[string][]hookEntry[FilterFunc]),
		actions: make(map[string][]hookEntry[ActionFunc]),
	}
}

func (h *Hooks) AddFilter(tag string, fn FilterFunc, priority ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filters[tag] = addHook(h.filters[tag], fn, priority)
}

func (h *Hooks) AddAction(tag string, fn ActionFunc, priority ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions[tag] = addHook(h.actions[tag], fn, priority)
}

// ApplyFilters passes value through every filter registered for tag.
func (h *Hooks) ApplyFilters(tag string, value any, args ...any) any {
	h.mu.RLock()
	entries := h.filters[tag]
	h.mu.RUnlock()

	for _, e := range entries {
		value = e.fn(value, args...)
	}

	return value
}

func (h *Hooks) DoAction(tag string, args ...any) {
	h.mu.RLock()
	entries := h.actions[tag]
	h.mu.RUnlock()

	for _, e := range entries {
		e.fn(args...)
	}
}

func (h *Hooks) HasFilter(tag string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.filters[tag]) > 0
}

func (h *Hooks) HasAction(tag string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.actions[tag]) > 0
}

func (h *Hooks) RemoveFilters(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.filters, tag)
}

func (h *Hooks) RemoveActions(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.actions, tag)
}

// addHook returns a new slice so dispatchers holding the old one are not
// affected.
func addHook[F any](list []hookEntry[F], fn F, priority []int) []hookEntry[F] {
	p := DefaultPriority
	if len(priority) > 0 {
		p = priority[0]
	}

	newList := make([]hookEntry[F], len(list), len(list)+1)
	copy(newList, list)
	newList = append(newList, hookEntry[F]{fn: fn, priority: p})
	sort.SliceStable(newList, func(i, j int) bool {
		return newList[i].priority < newList[j].priority
	})

	return newList
}

func FieldBeforeSaveHook(objName, field string) string {
	return fmt.Sprintf("%s_data_%s_before_save", objName, field)
}

func BeforeSaveHook(objName string) string {
	return objName + "_data_before_save"
}

func AfterSaveHook(objName string) string {
	return objName + "_data_after_save"
}
