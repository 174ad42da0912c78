package feed

// Config holds configuration for the booking snapshot source.
type Config struct {
	// URL is the iCal reservation feed to poll.
	URL string `mapstructure:"url" default:""`
	// TimeoutSeconds bounds the feed HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
