package id

// Gen generates the number id.
// Every call returns a value that is not 0, so 0 can be used as the
// "no owner" marker by the callers.
type Gen func() uint64
