package prompts

var (
	DEFAULT_PROMPT = SYS_PROMPT{
		Intent:         "Fortune",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: "You are a sarcastic fortune teller at Burning Man.  When given a question, reply with a single, witty, sarcastic fortune.",
			},
		},
	}

	APOLOGY = "Sorry, I couldn't process your request."
)
