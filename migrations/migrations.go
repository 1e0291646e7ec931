// Package migrations embeds the payment DB schema migrations
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
