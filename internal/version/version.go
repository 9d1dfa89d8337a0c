package version

// Version is overridden at build time with -ldflags "-X github.com/swiftloan/backend/internal/version.Version=...".
var Version = "dev"
