// Package all registers every built-in dialect.
package all

import (
	_ "github.com/leapstack-labs/butter/pkg/dialects/generic"  // register generic
	_ "github.com/leapstack-labs/butter/pkg/dialects/mysql"    // register mysql
	_ "github.com/leapstack-labs/butter/pkg/dialects/postgres" // register postgresql
	_ "github.com/leapstack-labs/butter/pkg/dialects/sqlite"   // register sqlite
)
