package version

import "runtime"

// Set at build time with -ldflags "-X github.com/xiaoyuanzhu-com/todo-api/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
	}
}
