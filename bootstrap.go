package scriptit

import (
	_ "embed"
	"fmt"
	"strconv"
)

// Script-side halves of the bootstrap contract. Every Environment runs
// its bootstrap before any user code.
var (
	//go:embed bootstrap/native.js
	jsNativeBootstrap string
	//go:embed bootstrap/shared.js
	jsSharedBootstrap string
	//go:embed bootstrap/host.js
	jsHostBootstrap string
	//go:embed bootstrap/shared.lua
	luaSharedBootstrap string
)

// jsFuncGlue is evaluated once per RegisterFunc on the JavaScript backends.
func jsFuncGlue(funcName, handlerName string) string {
	return fmt.Sprintf("(ScriptIt.core.registerFunc(%s, %s), null)",
		strconv.Quote(funcName), strconv.Quote(handlerName))
}

func luaFuncGlue(funcName, handlerName string) string {
	return fmt.Sprintf("ScriptIt.core.registerFunc(%s, %s)",
		strconv.Quote(funcName), strconv.Quote(handlerName))
}

func goFuncGlue(funcName, handlerName string) string {
	return fmt.Sprintf("scriptit.RegisterFunc(%s, %s)",
		strconv.Quote(funcName), strconv.Quote(handlerName))
}
