// Package migrations embeds the practice-service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
