package lua

import (
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Complete returns global names beginning with prefix, sorted. Dotted
// prefixes are resolved through global tables, so "string.re" yields
// "string.rep" and "string.reverse".
func (e *Engine) Complete(prefix string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	table := e.L.G.Global
	lead, last := "", prefix
	if i := strings.LastIndex(prefix, "."); i >= 0 {
		lead, last = prefix[:i], prefix[i+1:]
		tbl, ok := e.resolve(lead).(*lua.LTable)
		if !ok {
			return nil
		}
		table = tbl
	}

	var matches []string
	table.ForEach(func(k, _ lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if !strings.HasPrefix(string(name), last) {
			return
		}
		if lead != "" {
			matches = append(matches, lead+"."+string(name))
		} else {
			matches = append(matches, string(name))
		}
	})

	sort.Strings(matches)
	return matches
}

// resolve walks a dotted path of global tables and returns the value at
// its end, or LNil when any segment is missing.
func (e *Engine) resolve(path string) lua.LValue {
	var cur lua.LValue = e.L.G.Global
	for _, seg := range strings.Split(path, ".") {
		tbl, ok := cur.(*lua.LTable)
		if !ok {
			return lua.LNil
		}
		cur = tbl.RawGetString(seg)
	}
	return cur
}
