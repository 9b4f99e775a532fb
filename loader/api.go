package loader

import (
	lua "github.com/yuin/gopher-lua"
)

type rawTask struct {
	key   string
	table *lua.LTable
	order int
}

// registerAPI registers the Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Profile { name = "...", ... }
	L.SetGlobal("Profile", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.profile = tbl
		return 0
	}))

	// Task "key" { ... }: curried, Task("key") returns a function that
	// takes the definition table.
	L.SetGlobal("Task", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.tasks = append(coll.tasks, rawTask{
				key:   key,
				table: tbl,
				order: coll.nextSourceOrder(),
			})
			return 0
		}))
		return 1
	}))
}
