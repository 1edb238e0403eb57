package version

// Set at build time via -ldflags "-X .../internal/version.Version=...".
var Version = "dev"

const AppName = "MusicCat"
