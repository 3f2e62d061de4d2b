package config

// Env vars set by coding agents that run the CLI on a user's behalf.
var automatedCallerEnv = []string{"CLAUDECODE", "CODEX_SANDBOX", "GEMINI_CLI", "OPENCODE"}

// Capabilities are facts about the calling environment, resolved once at
// startup.
type Capabilities struct {
	// AutomatedCaller is set when an agent is driving the CLI; output is
	// forced to a structured format.
	AutomatedCaller bool
}

// DetectCapabilities inspects the environment through lookup, which has
// the signature of os.LookupEnv.
func DetectCapabilities(lookup func(string) (string, bool)) Capabilities {
	var caps Capabilities
	for _, name := range automatedCallerEnv {
		if _, ok := lookup(name); ok {
			caps.AutomatedCaller = true
			break
		}
	}
	return caps
}
