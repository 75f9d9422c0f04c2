package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering: a shared
// layout plus one file per page.
//
//go:embed templates/layout/*.html templates/pages/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets.
//
//go:embed static/*
var StaticFS embed.FS
