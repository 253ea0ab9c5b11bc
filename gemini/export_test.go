package gemini

// Drain exposes drain for testing.
var Drain = drain
