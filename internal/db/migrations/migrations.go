package migrations

import "embed"

// Migrations contiene los archivos SQL embebidos en el binario.
//
//go:embed *.sql
var Migrations embed.FS
