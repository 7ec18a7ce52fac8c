package strata

// config holds process-wide tunables that are not natural arguments to
// any single call.
type config struct {
	// DebugAssertions gates the O(n) change-set ordering checks that run
	// after every ChangeSet.Set/Remove. _test.go files turn this on via
	// init(); production callers leave it off.
	DebugAssertions bool

	// InitialCellCapacity is the number of rows a Cell pre-allocates for
	// on its first Push, to avoid a string of tiny reallocations for
	// archetypes that end up holding many entities.
	InitialCellCapacity int
}

// Config is the package-level tunable set, in the spirit of the
// teacher's own package-level Config value.
var Config = config{
	DebugAssertions:     false,
	InitialCellCapacity: 8,
}
