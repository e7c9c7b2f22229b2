package appfs

import "embed"

// FS holds the assets bundled with the binaries.
//
//go:embed locales migrations templates static
var FS embed.FS
