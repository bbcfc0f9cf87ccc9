//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-synth/synth"
)

const maxBlock = 128

var (
	engine  *synth.Engine
	pending []synth.NoteEvent
	left    = make([]float32, maxBlock)
	right   = make([]float32, maxBlock)
	// interleaved stereo handed to JS
	outputBuffer = make([]float32, maxBlock*2)
	scopeBuffer  []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmSetParam", js.FuncOf(wasmSetParam))
	js.Global().Set("wasmGetParam", js.FuncOf(wasmGetParam))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmScope", js.FuncOf(wasmScope))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM synth module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	e := synth.NewEngine()
	if err := e.Prepare(float64(args[0].Int()), maxBlock); err != nil {
		println("synth init failed:", err.Error())
		return false
	}
	engine = e
	pending = pending[:0]
	scopeBuffer = make([]float32, e.Scope().Len())
	return true
}

func wasmNoteOn(this js.Value, args []js.Value) any {
	if len(args) < 1 || engine == nil {
		return nil
	}
	pending = append(pending, synth.NoteOn(uint8(args[0].Int()&0x7f), 0))
	return nil
}

func wasmNoteOff(this js.Value, args []js.Value) any {
	if len(args) < 1 || engine == nil {
		return nil
	}
	pending = append(pending, synth.NoteOff(uint8(args[0].Int()&0x7f), 0))
	return nil
}

// paramID accepts a parameter name or its numeric id.
func paramID(v js.Value) (synth.ParamID, bool) {
	if v.Type() == js.TypeNumber {
		id := synth.ParamID(v.Int())
		return id, id >= 0 && id < synth.NumParams
	}
	id, err := synth.ParseParamID(v.String())
	return id, err == nil
}

func wasmSetParam(this js.Value, args []js.Value) any {
	if len(args) < 2 || engine == nil {
		return false
	}
	id, ok := paramID(args[0])
	if !ok {
		return false
	}
	engine.Parameters().Set(id, args[1].Float())
	return true
}

func wasmGetParam(this js.Value, args []js.Value) any {
	if len(args) < 1 || engine == nil {
		return nil
	}
	id, ok := paramID(args[0])
	if !ok {
		return nil
	}
	return engine.Parameters().Get(id)
}

func wasmProcessBlock(this js.Value, args []js.Value) any {
	if len(args) < 1 || engine == nil {
		return 0
	}
	n := min(max(args[0].Int(), 0), maxBlock)

	engine.ProcessBlock([][]float32{left[:n], right[:n]}, pending)
	pending = pending[:0]

	for i := 0; i < n; i++ {
		outputBuffer[2*i] = left[i]
		outputBuffer[2*i+1] = right[i]
	}
	return js.ValueOf(uintptr(unsafe.Pointer(&outputBuffer[0])))
}

// wasmScope refreshes the scope copy and returns its address; the length is
// 4*128 samples, oldest first.
func wasmScope(this js.Value, args []js.Value) any {
	if engine == nil || len(scopeBuffer) == 0 {
		return 0
	}
	scopeBuffer = engine.Scope().Snapshot(scopeBuffer)
	return js.ValueOf(uintptr(unsafe.Pointer(&scopeBuffer[0])))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) any {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
