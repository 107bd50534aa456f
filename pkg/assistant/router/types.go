package router

import "github.com/xpanvictor/parley/pkg/assistant"

type AdapterPack struct {
	Adapter assistant.Assistant
	Name    string
}

// Mux tries its adapters in order until one answers.
type Mux struct {
	Packs []AdapterPack
}
