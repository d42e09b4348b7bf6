package abacus

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/abacus.Version=...".
var Version = "0.4.0"
