// Package config provides configuration management for the lock sync
// service.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all settings, divided
// into subsections:
//   - Feed: booking calendar URL and fetch timeout
//   - Lock: control-plane endpoint, credentials, device, code windows
//   - State: path of the persisted booking snapshot
//   - Reconcile: run cadence and dry-run mode
//   - Notify: messaging CLI binary, channel, and target
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Lock.DeviceID)
package config
