package memory

import (
	"github.com/tinoosan/wallet/internal/service/account"
	"github.com/tinoosan/wallet/internal/snapshot"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ account.Repo   = (*Store)(nil)
	_ account.Writer = (*Store)(nil)
	// Persistence adapter source/sink
	_ snapshot.Table = (*Store)(nil)
)
