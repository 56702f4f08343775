// Package buildinfo reports which stepwise binary is running.
//
// Release builds set the variables below with the linker:
//
//	go build -ldflags "-X github.com/AbdelazizMoustafa10m/Stepwise/internal/buildinfo.Version=0.3.0 \
//	    -X github.com/AbdelazizMoustafa10m/Stepwise/internal/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/AbdelazizMoustafa10m/Stepwise/internal/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/stepwise
//
// Binaries built with plain "go build" or "go install" inside a checkout
// fall back to the VCS stamp the go command embeds.
package buildinfo

// Set at build time via -ldflags -X.
var (
	// Version is the release version without the leading "v", or "dev".
	Version = "dev"

	// Commit is the short git commit SHA.
	Commit = "unknown"

	// Date is the UTC build timestamp in RFC3339 format.
	Date = "unknown"
)
