package runtime

type RuntimePhase string

const (
	IDLE     RuntimePhase = "idle"
	SPEAKING RuntimePhase = "speaking"
)

type RuntimeEvents string

const (
	VOICE       RuntimeEvents = "voice"
	END_OF_TURN RuntimeEvents = "end_of_turn"
	RESET       RuntimeEvents = "reset"
)
