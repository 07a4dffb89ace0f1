// Package record defines how the data-access layer reads application values
// and how it reshapes flat result rows.
package record

import (
	"sort"
	"strings"
)

// Record gives access to a value by column name. Get reports false when the
// record has no such field; that is not an error for callers.
type Record interface {
	Get(name string) (any, bool)
}

// Map is a Record backed by a plain map. Lookups are exact.
type Map map[string]any

// Get implements Record.
func (m Map) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Func adapts a lookup function to Record.
type Func func(name string) (any, bool)

// Get implements Record.
func (f Func) Get(name string) (any, bool) {
	return f(name)
}

// Nest turns dotted keys into nested maps:
//
//	{"id": 1, "manager.name": "x"} -> {"id": 1, "manager": {"name": "x"}}
//
// When a key is both a scalar and a prefix ("a" and "a.b"), the nested map wins.
// Keys are applied in sorted order, so the result does not depend on map order.
func Nest(flat map[string]any) map[string]any {
	if flat == nil {
		return nil
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(flat))
	for _, k := range keys {
		set(out, strings.Split(k, "."), flat[k])
	}
	return out
}

func set(m map[string]any, path []string, v any) {
	for _, p := range path[:len(path)-1] {
		child, ok := m[p].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[p] = child
		}
		m = child
	}

	last := path[len(path)-1]
	if _, isMap := m[last].(map[string]any); isMap {
		return
	}
	m[last] = v
}

// NestAll applies Nest to every row.
func NestAll(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = Nest(r)
	}
	return out
}
