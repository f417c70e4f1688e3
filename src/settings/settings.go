package settings

import "sync"

type Arguments struct {
	// The directory holding database files
	DataDir string

	// the host name or IP address to listen on
	Host string

	// the port number to listen on
	Port int

	// address for the Prometheus metrics endpoint, empty to disable
	MetricsAddr string

	// Strongly verbose logging
	Verbose bool

	// Development logger and debug level output
	Debug bool

	AuthEnabled bool // Enable authentication

	// Comma separated name:password pairs seeded into the credential store
	Users string

	Version string
}

var (
	instance *Arguments
	once     sync.Once
)

// GetSettings returns the process-wide settings instance.
func GetSettings() *Arguments {
	once.Do(func() {
		instance = &Arguments{}
	})
	return instance
}
