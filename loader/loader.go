// Package loader reads task packs: Lua files declaring the bot's
// profile and the tasks a player can assign. The VM is sandboxed and
// discarded after loading; packs are data, not scripts with authority.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Task is one assignable goal.
type Task struct {
	Key         string
	Title       string
	Description string
	Hint        string
	Order       int
}

// Profile describes the pack and the bot's persona.
type Profile struct {
	Name         string
	Version      string
	Author       string
	SystemPrompt string
	InitialTask  string
}

// Pack is a compiled, validated task pack.
type Pack struct {
	Profile Profile
	Tasks   []Task

	byKey map[string]Task
}

// Task looks a task up by key.
func (p *Pack) Task(key string) (Task, bool) {
	t, ok := p.byKey[key]
	return t, ok
}

// Keys returns the task keys in presentation order.
func (p *Pack) Keys() []string {
	keys := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		keys = append(keys, t.Key)
	}
	return keys
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	profile *lua.LTable
	tasks   []rawTask
	order   int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Load reads all .lua files from dir, compiles them into a task pack,
// and validates it. The Lua VM is discarded after loading.
func Load(dir string) (*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pack directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: profile.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	pack, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling task pack: %w", err)
	}

	if err := validate(pack); err != nil {
		return nil, err
	}

	return pack, nil
}

// sortedLuaFiles puts profile.lua first, then the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Strings(files)
	for i, f := range files {
		if f == "profile.lua" {
			return append([]string{f}, append(append([]string{}, files[:i]...), files[i+1:]...)...)
		}
	}
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
