package version

const (
	AppName        = "Domme Dispatch"
	AppDescription = "Message-driven command bot with nested subcommands, aliases and phrase triggers."
)

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=...".
var Version = "dev"
