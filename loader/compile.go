package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// compile turns the collected Lua tables into a Pack.
func compile(coll *collector) (*Pack, error) {
	pack := &Pack{byKey: map[string]Task{}}

	if coll.profile != nil {
		pack.Profile = Profile{
			Name:         getString(coll.profile, "name"),
			Version:      getString(coll.profile, "version"),
			Author:       getString(coll.profile, "author"),
			SystemPrompt: getString(coll.profile, "system_prompt"),
			InitialTask:  getString(coll.profile, "initial_task"),
		}
	}

	for _, raw := range coll.tasks {
		t := Task{
			Key:         raw.key,
			Title:       getString(raw.table, "title"),
			Description: getString(raw.table, "description"),
			Hint:        getString(raw.table, "hint"),
			Order:       raw.order,
		}
		if explicit, ok := getInt(raw.table, "order"); ok {
			t.Order = explicit
		}
		if _, dup := pack.byKey[t.Key]; dup {
			return nil, fmt.Errorf("duplicate task %q", t.Key)
		}
		pack.byKey[t.Key] = t
		pack.Tasks = append(pack.Tasks, t)
	}

	sort.SliceStable(pack.Tasks, func(i, j int) bool {
		return pack.Tasks[i].Order < pack.Tasks[j].Order
	})

	return pack, nil
}

func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getInt(tbl *lua.LTable, key string) (int, bool) {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n), true
	}
	return 0, false
}
