package tilth

import (
	_ "embed"
)

// Version is the release of the library and the tilth CLI.
//
//go:embed VERSION
var Version string
