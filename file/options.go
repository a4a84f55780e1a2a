package file

import (
	"github.com/xcdf-go/xcdf/block"
	"github.com/xcdf-go/xcdf/internal/options"
)

// config holds an Engine's tunable parameters, set via EngineOption at
// construction time.
type config struct {
	blockSize          int
	thresholdByteCount int
	zeroAlign          bool
	deflate            bool
	blockTable         bool
	recoverMode        bool
}

func defaultConfig() *config {
	return &config{
		blockSize:          block.DefaultBlockSize,
		thresholdByteCount: block.DefaultThresholdByteCount,
		zeroAlign:          true,
		deflate:            false,
		blockTable:         true,
		recoverMode:        false,
	}
}

// EngineOption configures an Engine at construction time.
type EngineOption = options.Option[*config]

// WithBlockSize overrides the default 1000-event block flush threshold.
func WithBlockSize(n int) EngineOption {
	return options.NoError(func(c *config) { c.blockSize = n })
}

// WithThresholdByteCount overrides the default 10^8-byte block flush
// threshold.
func WithThresholdByteCount(n int) EngineOption {
	return options.NoError(func(c *config) { c.thresholdByteCount = n })
}

// WithZeroAlign toggles zero-alignment of each block's active_min
// (default on), per spec.md §4.4 step 3.
func WithZeroAlign(enabled bool) EngineOption {
	return options.NoError(func(c *config) { c.zeroAlign = enabled })
}

// WithDeflate toggles DEFLATE-wrapping of block header/data frames and
// the trailer frame; the file header frame is never deflated (default off — the writer does not deflate by default per spec.md §9;
// the reader always accepts both forms regardless of this option).
func WithDeflate(enabled bool) EngineOption {
	return options.NoError(func(c *config) { c.deflate = enabled })
}

// WithBlockTable toggles whether a block index is accumulated and
// written to the trailer (default on). With it disabled, Seek beyond the
// current block falls back to a linear scan from the start of the file.
func WithBlockTable(enabled bool) EngineOption {
	return options.NoError(func(c *config) { c.blockTable = enabled })
}

// WithRecoverMode puts a reader Engine into recover mode: a corrupt block
// is surrendered rather than failing the read outright, and
// RecoveredEventCount reports how many events were salvaged.
func WithRecoverMode() EngineOption {
	return options.NoError(func(c *config) { c.recoverMode = true })
}
