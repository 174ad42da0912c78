package reconcile

// Config holds orchestration settings for the run loop.
type Config struct {
	// Interval is the cadence of the watch command (Go duration string).
	Interval string `mapstructure:"interval" default:"15m"`
	// DryRun computes and logs every mutation without touching the
	// device or the state file. The --dry-run flag also sets this.
	DryRun bool `mapstructure:"dry_run" default:"false"`
}
