// Package web holds the static page served at the site root.
package web

import "embed"

//go:embed index.html
var FS embed.FS
