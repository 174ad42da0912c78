package notify

// Config holds configuration for outbound notifications.
type Config struct {
	// Binary is the messaging CLI used for delivery.
	Binary string `mapstructure:"binary" default:"openclaw"`
	// Channel is the delivery channel passed to the CLI.
	Channel string `mapstructure:"channel" default:"whatsapp"`
	// Target is the recipient phone number. Empty disables delivery;
	// messages are logged instead.
	Target string `mapstructure:"target" default:""`
	// TimeoutSeconds bounds a single delivery attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
