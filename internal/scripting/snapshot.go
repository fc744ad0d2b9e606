package scripting

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Snapshot is the character state a predicate sees.
type Snapshot struct {
	ID    string
	Name  string
	Level int
	BAB   int

	// Abilities maps ability key to effective score.
	Abilities map[string]int

	// ClassLevels maps class ID to level in that class.
	ClassLevels map[string]int

	// Feats lists the catalog IDs of owned feats.
	Feats []string

	// Skills maps skill key to ranks.
	Skills map[string]float64
}

// Table converts s into a Lua table:
//
//	{ id, name, level, bab, abilities = {str = 14, ...}, class_levels = {...},
//	  feats = {["feat.dodge"] = true, ...}, skills = {climb = 4, ...} }
func (s Snapshot) Table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(s.ID))
	t.RawSetString("name", lua.LString(s.Name))
	t.RawSetString("level", lua.LNumber(s.Level))
	t.RawSetString("bab", lua.LNumber(s.BAB))

	abilities := L.NewTable()
	for _, k := range sortedKeys(s.Abilities) {
		abilities.RawSetString(k, lua.LNumber(s.Abilities[k]))
	}
	t.RawSetString("abilities", abilities)

	classes := L.NewTable()
	for _, k := range sortedKeys(s.ClassLevels) {
		classes.RawSetString(k, lua.LNumber(s.ClassLevels[k]))
	}
	t.RawSetString("class_levels", classes)

	feats := L.NewTable()
	for _, f := range s.Feats {
		feats.RawSetString(f, lua.LTrue)
	}
	t.RawSetString("feats", feats)

	skills := L.NewTable()
	for _, k := range sortedKeys(s.Skills) {
		skills.RawSetString(k, lua.LNumber(s.Skills[k]))
	}
	t.RawSetString("skills", skills)
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
