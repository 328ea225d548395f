// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/abid8042/chessnetviz/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/abid8042/chessnetviz/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/abid8042/chessnetviz/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/chessnetviz
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a multi-line summary for logs and the server's /version.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Info is the JSON form served by the HTTP API.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the stamped build information.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
