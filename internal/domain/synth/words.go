package synth

// Word lists for synthetic display names.
var (
	usernameAdjectives = []string{
		"cosmic", "neon", "velvet", "golden", "silent", "electric",
		"wild", "urban", "lunar", "crimson", "daily", "wandering",
	}

	usernameNouns = []string{
		"pixel", "nomad", "echo", "falcon", "muse", "drifter",
		"spark", "voyager", "canvas", "orbit", "beacon", "scribe",
	}
)
