// Package config holds the static configuration record radish is started
// with. There is no config-file format: callers build a Config (typically
// cmd/radishd parses flags into one), hand it to the snapshot engine, and
// pass its bind host and port to the acceptor.
package config

const (
	DefaultBindHost  = "127.0.0.1"
	DefaultBindPort  = 12345
	DefaultAsyncTime = 100
	DefaultSecCount  = 100
	DefaultMinCount  = 10
	DefaultPdbFile   = "db/dump.pdb"
)

// Config is the static configuration record radish runs with.
type Config struct {
	// PdbFile is the path to the snapshot file.
	PdbFile string

	// AsyncTime is the interval, in seconds, at which the snapshot policy
	// saves if any mutation happened since the last save.
	AsyncTime int

	// SecCount is the number of mutations per second that forces a save.
	SecCount int

	// MinCount is the number of mutations per minute that forces a save.
	MinCount int

	// BindHost is the TCP listen host.
	BindHost string

	// BindPort is the TCP listen port.
	BindPort int
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		PdbFile:   DefaultPdbFile,
		AsyncTime: DefaultAsyncTime,
		SecCount:  DefaultSecCount,
		MinCount:  DefaultMinCount,
		BindHost:  DefaultBindHost,
		BindPort:  DefaultBindPort,
	}
}
