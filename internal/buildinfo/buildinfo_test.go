package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndCurrent(t *testing.T) {
	Set(Info{Version: "1.2.3", Commit: "abc123", Date: "2025-01-01", BuiltBy: "ci"})

	assert.Equal(t, Info{Version: "1.2.3", Commit: "abc123", Date: "2025-01-01", BuiltBy: "ci"}, Current())
	assert.Equal(t, "1.2.3", Short())
}

func TestString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "deadbeef", Date: "2025-06-01", BuiltBy: "goreleaser"}
	assert.Equal(t, "v1.0.0 (commit deadbeef, built 2025-06-01 by goreleaser)", info.String())
}

func TestEnrichBackfillsBuiltBy(t *testing.T) {
	Set(Info{Version: "dev", Commit: "none", Date: "unknown", BuiltBy: "unknown"})
	Enrich()

	// The test binary always carries its Go version in the embedded
	// build information.
	assert.NotEqual(t, "unknown", Current().BuiltBy)
}

func TestEnrichPreservesExplicitValues(t *testing.T) {
	Set(Info{Version: "v1.0.0", Commit: "deadbeef", Date: "2025-06-01", BuiltBy: "goreleaser"})
	Enrich()

	assert.Equal(t, "deadbeef", Current().Commit)
	assert.Equal(t, "goreleaser", Current().BuiltBy)
}
