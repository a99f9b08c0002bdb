//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/internal/view"
	"github.com/kittclouds/constellation/pkg/sched"
	"github.com/kittclouds/constellation/pkg/snapshot"
)

// Version info
const Version = "0.1.0"

// Global state, only touched on the loop goroutine.
var (
	loop   *sched.Loop
	graphs *view.Controller
)

func main() {
	loop = sched.NewLoop()
	go loop.Run(context.Background())

	println("[Constellation] WASM Ready v" + Version)

	js.Global().Set("Constellation", js.ValueOf(map[string]interface{}{
		"version":    js.FuncOf(getVersion),
		"load":       js.FuncOf(load),
		"mount":      js.FuncOf(mount),
		"frame":      js.FuncOf(frame),
		"click":      js.FuncOf(click),
		"clickAt":    js.FuncOf(clickAt),
		"hover":      js.FuncOf(hover),
		"hoverAt":    js.FuncOf(hoverAt),
		"status":     js.FuncOf(status),
		"saveLayout": js.FuncOf(saveLayout),
		"dispose":    js.FuncOf(dispose),
	}))

	select {}
}

// onLoop runs fn on the view's loop and returns its result to JS.
func onLoop(fn func() interface{}) interface{} {
	var out interface{}
	if !loop.Call(func() { out = fn() }) {
		return errorResult("loop closed")
	}
	return out
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// load: [baseURL string, token string, maxVisible int, onStatus fn(status, message), onRedraw fn()]
// Replaces any previous view. The fetch runs in the background; status
// changes are reported through onStatus.
func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("load requires at least 1 arg: baseURL")
	}
	baseURL := args[0].String()
	token := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		token = args[1].String()
	}
	maxVisible := 0
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		maxVisible = args[2].Int()
	}
	var onStatus, onRedraw js.Value
	if len(args) > 3 && args[3].Type() == js.TypeFunction {
		onStatus = args[3]
	}
	if len(args) > 4 && args[4].Type() == js.TypeFunction {
		onRedraw = args[4]
	}

	return onLoop(func() interface{} {
		if graphs != nil {
			graphs.Close()
		}
		client := api.NewClient(api.WithBaseURL(baseURL), api.WithToken(token))
		opts := []view.Option{view.WithMaxVisible(maxVisible)}
		if !onStatus.IsUndefined() {
			opts = append(opts, view.WithOnStatus(func(s view.Status, msg string) {
				onStatus.Invoke(s.String(), msg)
			}))
		}
		if !onRedraw.IsUndefined() {
			opts = append(opts, view.WithOnRedraw(func() { onRedraw.Invoke() }))
		}
		graphs = view.New(loop, client, opts...)
		if err := graphs.Load(context.Background()); err != nil {
			return errorResult(err.Error())
		}
		return successResult("loading")
	})
}

// mount: [width, height]
func mount(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("mount requires 2 args: width, height")
	}
	w, h := args[0].Float(), args[1].Float()
	return onLoop(func() interface{} {
		if graphs == nil {
			return errorResult("nothing loaded")
		}
		graphs.Mount(w, h)
		return successResult("mounted")
	})
}

// frame: []
// Returns: JSON frame (camera, link segments, draw commands)
// The paint clock is the loop's own, the same one that timed the camera fit,
// so a requestAnimationFrame timestamp is never mixed with epoch time.
func frame(this js.Value, args []js.Value) interface{} {
	return onLoop(func() interface{} {
		if graphs == nil {
			return errorResult("nothing loaded")
		}
		bytes, err := json.Marshal(graphs.Frame(sched.NowMillis(loop)))
		if err != nil {
			return errorResult(err.Error())
		}
		return string(bytes)
	})
}

// click: [nodeID]
func click(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("click requires 1 arg: nodeID")
	}
	id := args[0].String()
	return onLoop(func() interface{} {
		if graphs != nil {
			graphs.Click(id)
		}
		return successResult(id)
	})
}

// clickAt: [x, y] in canvas pixels. Returns the clicked node id or "".
func clickAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("clickAt requires 2 args: x, y")
	}
	x, y := args[0].Float(), args[1].Float()
	return onLoop(func() interface{} {
		if graphs == nil {
			return ""
		}
		id, _ := graphs.ClickAt(x, y)
		return id
	})
}

// hover: [nodeID or ""]
func hover(this js.Value, args []js.Value) interface{} {
	id := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	return onLoop(func() interface{} {
		if graphs != nil {
			graphs.Hover(id)
		}
		return successResult(id)
	})
}

// hoverAt: [x, y]. Returns the hovered node id or "".
func hoverAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("hoverAt requires 2 args: x, y")
	}
	x, y := args[0].Float(), args[1].Float()
	return onLoop(func() interface{} {
		if graphs == nil {
			return ""
		}
		return graphs.HoverAt(x, y)
	})
}

// status returns {"status": "loading|error|ready", "message": "..."}.
func status(this js.Value, args []js.Value) interface{} {
	return onLoop(func() interface{} {
		if graphs == nil {
			return errorResult("nothing loaded")
		}
		st, msg := graphs.Status()
		nodes, edges := graphs.Counts()
		bytes, _ := json.Marshal(map[string]interface{}{
			"status":  st.String(),
			"message": msg,
			"nodes":   nodes,
			"edges":   edges,
			"visible": len(graphs.VisibleNodes()),
		})
		return string(bytes)
	})
}

// saveLayout: [callback fn(resultJSON)]
// Persists the current layout to IndexedDB. IndexedDB needs the JS event
// loop, so the write happens in the background.
func saveLayout(this js.Value, args []js.Value) interface{} {
	var done js.Value
	if len(args) > 0 && args[0].Type() == js.TypeFunction {
		done = args[0]
	}
	result := onLoop(func() interface{} {
		if graphs == nil {
			return errorResult("nothing loaded")
		}
		snap := graphs.Snapshot()
		go func() {
			msg := writeLayout(snap)
			if !done.IsUndefined() {
				done.Invoke(msg)
			}
		}()
		return successResult("saving")
	})
	return result
}

func writeLayout(snap snapshot.Snapshot) interface{} {
	fs, err := indexeddb.NewFS(context.Background(), "constellation", indexeddb.Options{})
	if err != nil {
		return errorResult("failed to create idb fs: " + err.Error())
	}
	st, err := snapshot.NewStore(fs, "layout.json")
	if err != nil {
		return errorResult(err.Error())
	}
	if err := st.Save(snap); err != nil {
		return errorResult("save failed: " + err.Error())
	}
	return successResult("saved")
}

// dispose stops every timer and drops the view.
func dispose(this js.Value, args []js.Value) interface{} {
	return onLoop(func() interface{} {
		if graphs != nil {
			graphs.Close()
			graphs = nil
		}
		return successResult("disposed")
	})
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}
