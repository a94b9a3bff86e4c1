package config

// Version is set at build time with -ldflags "-X github.com/tana/tana/internal/config.Version=...".
var Version = "dev"
