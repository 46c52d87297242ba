package main

// Exit codes for citemill commands
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error
	ExitConfigError       = 2 // Configuration error (missing repo, invalid config)
	ExitDataError         = 3 // Data error (malformed input, failed candidates)
	ExitTaggerUnavailable = 4 // Tagging backend unreachable or misbehaving
)
