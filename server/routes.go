package server

// Version is the API version used in routing.
const Version = "v0"

// Base returns the versioned API base path (e.g., "/api/v0").
func Base() string {
	return "/api/" + Version
}

// Overrides returns the overrides base path (e.g., "/api/v0/overrides").
func Overrides() string {
	return Base() + "/overrides"
}

// Commands returns the path accepting /debug command lines.
func Commands() string {
	return Overrides() + "/commands"
}

// Config returns the effective configuration path (e.g., "/api/v0/config").
func Config() string {
	return Base() + "/config"
}
