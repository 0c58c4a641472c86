package reports

// bounceRatesBySource is unexported; expose it so the external test package
// can call it without importing testsupport from inside package reports,
// which would create an import cycle.
var BounceRatesBySource = bounceRatesBySource
