package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable exposes info to a resolver script as the read-only
// global "platform":
//
//	platform.system   -- "linux/amd64"
//	platform.os       -- "linux"
//	platform.arch     -- "amd64"
//	platform.distro   -- {id, family, version} or nil
func InjectPlatformTable(L *lua.LState, info *Info) {
	t := L.NewTable()

	L.SetField(t, "system", lua.LString(info.System()))
	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	L.SetField(t, "arch_raw", lua.LString(info.ArchRaw))
	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(t, "is_windows", lua.LBool(info.IsWindows()))

	if distro := info.GetDistro(); distro != nil {
		d := L.NewTable()
		L.SetField(d, "id", lua.LString(distro.ID))
		L.SetField(d, "family", lua.LString(distro.Family))
		L.SetField(d, "version", lua.LString(distro.Version))
		L.SetField(t, "distro", d)
	}

	L.SetGlobal("platform", readOnly(L, t, "platform"))
}

// readOnly wraps table in a proxy whose metatable forwards reads and
// rejects writes.
func readOnly(L *lua.LState, table *lua.LTable, name string) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s table is read-only", name)
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
