package state

// Config holds configuration for the state store.
type Config struct {
	// Path is the JSON file holding reconciliation state between runs.
	Path string `mapstructure:"path" default:"bookings_state.json"`
}
