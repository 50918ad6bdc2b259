//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/strommix/strommix/internal/engine"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/surface"
)

var surf *surface.Surface

func main() {
	surf = surface.New()

	// Create the surface API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → surface) ---
	api.Set("loadScene", js.FuncOf(loadScene))
	api.Set("reset", js.FuncOf(reset))
	api.Set("translate", js.FuncOf(translate))
	api.Set("scale", js.FuncOf(scale))
	api.Set("rotate", js.FuncOf(rotate))
	api.Set("apply", js.FuncOf(apply))
	api.Set("setSelection", js.FuncOf(setSelection))

	// --- Queries (frontend ← surface) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getScene", js.FuncOf(getScene))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getVersion", js.FuncOf(getVersion))

	// Register on global scope
	js.Global().Set("strommixSurface", api)

	// Signal that WASM is ready
	js.Global().Set("strommixWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

// placed reports the result of an edit back to the caller as JSON.
func placed(p scene.Placement, err error) interface{} {
	if err != nil {
		return fail(err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "placement": string(data)})
}

// --- Command Handlers ---

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}

	var doc scene.Document
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return fail(err)
	}
	surf.Load(&doc)

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func reset(this js.Value, args []js.Value) interface{} {
	surf.Reset()
	return nil
}

func translate(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "usage: translate(id, dx, dy)"})
	}
	return placed(surf.Translate(args[0].String(), args[1].Float(), args[2].Float()))
}

func scale(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "usage: scale(id, fx, fy)"})
	}
	return placed(surf.Scale(args[0].String(), args[1].Float(), args[2].Float()))
}

func rotate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "usage: rotate(id, degrees)"})
	}
	return placed(surf.Rotate(args[0].String(), args[1].Float()))
}

// apply takes an edit in wire form, e.g. {"kind":"place","placement":{...}}.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "usage: apply(id, editJSON)"})
	}
	var e surface.Edit
	if err := json.Unmarshal([]byte(args[1].String()), &e); err != nil {
		return fail(err)
	}
	return placed(surf.Apply(args[0].String(), e))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		surf.Select(nil)
		return nil
	}

	arr := args[0]
	if arr.Type() != js.TypeObject {
		surf.Select(nil)
		return nil
	}

	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	surf.Select(ids)
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	out, err := engine.DrawCommandsToJSON(surf.Render())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x := args[0].Float()
	y := args[1].Float()
	return js.ValueOf(surf.HitTest(x, y))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.RectToJSON(surf.SelectionBounds()))
}

func getScene(this js.Value, args []js.Value) interface{} {
	doc := surf.Snapshot()
	if doc == nil {
		return js.ValueOf("null")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(surf.Selection())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(float64(surf.Version()))
}
