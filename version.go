package evstream

// Version is set at build time with -ldflags "-X github.com/iwai/evstream.Version=...".
var Version = "unknown"
