package lock

// Config holds configuration for the lock vendor client and the code
// window computation.
type Config struct {
	// Endpoint is the base URL of the vendor control plane.
	Endpoint string `mapstructure:"endpoint" default:"https://api.lock.example.com"`
	// KeyID identifies the API key pair used for authentication.
	KeyID string `mapstructure:"key_id" default:""`
	// APIKey is the secret half of the key pair.
	APIKey string `mapstructure:"api_key" default:""`
	// APIKeyExpires is the key's expiration date, used for renewal
	// warnings. Accepts YYYY-MM-DD or MM-DD-YYYY, with optional time.
	APIKeyExpires string `mapstructure:"api_key_expires" default:""`
	// DeviceID identifies the managed lock.
	DeviceID string `mapstructure:"device_id" default:""`
	// TimeoutSeconds is the per-call network timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`

	// ActivationBufferMinutes is how long before check-in a code becomes valid.
	ActivationBufferMinutes int `mapstructure:"activation_buffer_minutes" default:"5"`
	// ExpirationBufferMinutes is how long after check-out a code stays valid.
	ExpirationBufferMinutes int `mapstructure:"expiration_buffer_minutes" default:"15"`
	// CheckInTime is the default check-in clock time (HH:MM local).
	CheckInTime string `mapstructure:"check_in_time" default:"16:00"`
	// CheckOutTime is the default check-out clock time (HH:MM local).
	CheckOutTime string `mapstructure:"check_out_time" default:"11:00"`
	// Timezone is the IANA zone the lock lives in. Calendar dates are
	// localized here before the window is computed.
	Timezone string `mapstructure:"timezone" default:"America/Chicago"`
	// GracePeriodDays is how long after a code's window ends before the
	// cleanup sweeper may delete it.
	GracePeriodDays int `mapstructure:"grace_period_days" default:"14"`
}
