package malloc

import (
	"log"

	"github.com/disba1ancer/container-test/internal/region"
)

// Config holds the tunable knobs of an Allocator. The zero value is
// never used directly; New always starts from defaultConfig and
// applies Options on top, mirroring the teacher's Option func(*Config)
// pattern.
type Config struct {
	ChunkSize      uintptr
	ChunkThreshold uintptr
	Logger         *log.Logger
	Debug          bool
}

// Option configures a Config field.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ChunkSize:      region.ChunkSize,
		ChunkThreshold: region.Threshold,
		Logger:         nil,
		Debug:          false,
	}
}

// WithChunkSize overrides the default chunk reservation size. size is
// rounded up to a Granularity multiple by the allocator when it is
// actually used.
func WithChunkSize(size uintptr) Option {
	return func(c *Config) { c.ChunkSize = size }
}

// WithChunkThreshold overrides the size boundary above which requests
// take the big (direct-to-OS) path instead of the chunked path.
func WithChunkThreshold(threshold uintptr) Option {
	return func(c *Config) { c.ChunkThreshold = threshold }
}

// WithLogger attaches a logger. It is used only when Debug is enabled,
// to report chunk growth and whole-chunk release; Dump writes to its own
// io.Writer, and a failed OS release panics without logging.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithDebug enables verbose logging of chunk growth and whole-chunk
// release through the configured Logger.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.Debug = enabled }
}
