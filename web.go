// Package shed embeds the browser client served at the site root.
package shed

import "embed"

//go:embed web
var WebFS embed.FS
