// Package all registers every built-in artifact store with the storage
// factory. Import it for side effects:
//
//	import _ "eventschema/internal/storage/all"
//
// after which storage.New accepts the kinds "sqlite" and "postgres".
package all

import (
	_ "eventschema/internal/storage/postgres"
	_ "eventschema/internal/storage/sqlite"
)
