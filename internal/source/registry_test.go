package source

import (
	"context"
	"testing"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

type staticSource struct {
	platform string
	tag      string
}

func (s staticSource) Platform() string { return s.platform }

func (s staticSource) Search(context.Context, ports.SearchQuery) (ports.SearchResult, error) {
	return ports.SearchResult{}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(staticSource{platform: "reddit"})

	src, err := reg.Resolve("reddit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.Platform() != "reddit" {
		t.Fatalf("platform = %q", src.Platform())
	}

	if _, err := reg.Resolve("mastodon"); err == nil {
		t.Fatal("expected error for an unregistered platform")
	}
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()

	first := staticSource{platform: "reddit", tag: "v1"}
	second := staticSource{platform: "reddit", tag: "v2"}

	reg := NewRegistry()
	reg.Register(first)
	reg.Register(second)

	src, err := reg.Resolve("reddit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src != ports.PostSource(second) {
		t.Fatal("later registration must replace the earlier one")
	}
}
