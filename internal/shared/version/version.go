package version

// Version is overridden at build time with
// -ldflags "-X amcli/internal/shared/version.Version=...".
var Version = "0.1.0"

// String is the line printed by "am version".
func String() string {
	return "am v" + Version
}
