package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration scaffolded by
// the config init command.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// IndexHTML contains the embedded control page served at the web root.
//
//go:embed web/index.html
var IndexHTML []byte
