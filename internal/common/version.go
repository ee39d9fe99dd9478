package common

// Version is set at build time via -ldflags "-X github.com/pinta-partners/maggid/internal/common.Version=x.y.z"
var Version = "dev"

// GetVersion returns the application version
func GetVersion() string {
	return Version
}
