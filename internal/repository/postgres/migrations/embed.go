// Package migrations embeds the vault schema. Table names carry the
// environment prefix through goose ENVSUB (${VAULT_TABLE_PREFIX}).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
