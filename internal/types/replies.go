package types

// Fixed chat replies shared by the supervisor, executors and front-ends.
const (
	ReplyClarify             = "Got your position. Should I evaluate it, generate objections, or gather sources?"
	ReplyNudge               = "Please paste your argument/pitch so I can help. One or two sentences is enough."
	ReplyMenu                = "What should I do next? Options: evaluate_argument / give_objections (or objections for pitch) / research."
	ReplyFallback            = "I captured your message. Would you like me to evaluate, object, or research?"
	ReplyResearchUnsupported = "Research is not supported in this configuration."
	ReplyErrorPrefix         = "Something went wrong: "
)
