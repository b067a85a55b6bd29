package bubbletea

// Truncate exposes truncate for testing.
var Truncate = truncate
