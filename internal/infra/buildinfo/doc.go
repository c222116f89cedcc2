// Package buildinfo exposes version information of meterd binaries.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/meterd/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/meterd/internal/infra/buildinfo.Commit=abc123"
//
// When Commit or BuildTime are not injected they fall back to the VCS
// stamp recorded by the Go toolchain, if any.
package buildinfo
