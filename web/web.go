// Package web embeds the gate's HTML templates.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
