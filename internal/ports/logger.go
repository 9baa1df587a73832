package ports

import "github.com/inferlab/microbatch/pkg/log"

// Logger is the structured logging port. It is the pkg/log interface so the
// core and adapters share one logging contract.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors, re-exported for call-site brevity.
var (
	String   = log.String
	Int      = log.Int
	Uint64   = log.Uint64
	Duration = log.Duration
	Err      = log.Err
)
