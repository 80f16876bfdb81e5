package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"///", "/"},
		{"old", "/old"},
		{"/Old/", "/old"},
		{"//blog//", "/blog"},
		{"  /About-Us  ", "/about-us"},
		{"/a/b/c/", "/a/b/c"},
		{"https://Example.com/Path/", "https://Example.com/Path/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRedirectPath(tt.in))
		})
	}
}

func TestCleanRedirectTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"new-page", "/new-page"},
		{" /Docs/Guide.PDF?token=AbC ", "/Docs/Guide.PDF?token=AbC"},
		{"//Blog//", "/Blog"},
		{"/", "/"},
		{"/Search/?q=Go/", "/Search?q=Go/"},
		{"/Intro#Part-2", "/Intro#Part-2"},
		{"https://Example.com/Path/?A=B", "https://Example.com/Path/?A=B"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanRedirectTarget(tt.in))
		})
	}
}

func TestRejectsSelfRedirect(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   bool
	}{
		{"identical", "/x", "/x", true},
		{"case differs", "/About", "/about", true},
		{"trailing slash", "/about/", "/about", true},
		{"missing leading slash", "about", "/about", true},
		{"root", "/", "", true},
		{"different paths", "/a", "/b", false},
		{"prefix only", "/blog", "/blog/post", false},
		{"absolute url target", "/a", "https://example.com/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RejectsSelfRedirect(tt.source, tt.target))
		})
	}
}

func TestRejectsSelfRedirect_AllNormalizedPaths(t *testing.T) {
	paths := []string{"/", "/a", "/a/b", "/posts/hello-world", "/x?y=1"}
	for _, p := range paths {
		assert.True(t, RejectsSelfRedirect(p, p), p)
		for _, q := range paths {
			if p != q {
				assert.False(t, RejectsSelfRedirect(p, q), "%s vs %s", p, q)
			}
		}
	}
}

func TestWouldCreateLoop(t *testing.T) {
	id := func(v uint64) *uint64 { return &v }

	tests := []struct {
		name        string
		rules       []RedirectEdge
		source      string
		target      string
		candidateID *uint64
		want        bool
	}{
		{
			name:   "two-cycle with existing rule",
			rules:  []RedirectEdge{{ID: 1, Source: "/old", Target: "/new"}},
			source: "/new",
			target: "/old",
			want:   true,
		},
		{
			name: "chain extends without loop",
			rules: []RedirectEdge{
				{ID: 1, Source: "/a", Target: "/b"},
				{ID: 2, Source: "/b", Target: "/c"},
			},
			source: "/c",
			target: "/d",
			want:   false,
		},
		{
			name: "three-cycle",
			rules: []RedirectEdge{
				{ID: 1, Source: "/a", Target: "/b"},
				{ID: 2, Source: "/b", Target: "/c"},
			},
			source: "/c",
			target: "/a",
			want:   true,
		},
		{
			name:   "self redirect is a loop",
			source: "/x",
			target: "/x",
			want:   true,
		},
		{
			name:   "target unknown as source",
			rules:  []RedirectEdge{{ID: 1, Source: "/a", Target: "/b"}},
			source: "/z",
			target: "/nowhere",
			want:   false,
		},
		{
			name:   "case and slashes are normalized",
			rules:  []RedirectEdge{{ID: 1, Source: "/Old/", Target: "/NEW"}},
			source: "new/",
			target: "/old",
			want:   true,
		},
		{
			name: "editing a rule ignores its previous edge",
			rules: []RedirectEdge{
				{ID: 1, Source: "/a", Target: "/b"},
				{ID: 2, Source: "/b", Target: "/a-old"},
			},
			source:      "/b",
			target:      "/c",
			candidateID: id(2),
			want:        false,
		},
		{
			name: "editing into a loop is still detected",
			rules: []RedirectEdge{
				{ID: 1, Source: "/a", Target: "/b"},
				{ID: 2, Source: "/b", Target: "/c"},
			},
			source:      "/b",
			target:      "/a",
			candidateID: id(2),
			want:        true,
		},
		{
			name: "pre-existing cycle reachable from target terminates",
			rules: []RedirectEdge{
				{ID: 1, Source: "/p", Target: "/q"},
				{ID: 2, Source: "/q", Target: "/p"},
			},
			source: "/start",
			target: "/p",
			want:   true,
		},
		{
			name: "pre-existing cycle not reachable is ignored",
			rules: []RedirectEdge{
				{ID: 1, Source: "/p", Target: "/q"},
				{ID: 2, Source: "/q", Target: "/p"},
			},
			source: "/start",
			target: "/elsewhere",
			want:   false,
		},
		{
			name:   "absolute url target is a dead end",
			rules:  []RedirectEdge{{ID: 1, Source: "/a", Target: "/b"}},
			source: "/b",
			target: "https://example.com/a",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WouldCreateLoop(tt.source, tt.target, tt.rules, tt.candidateID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWouldCreateLoop_LongChain(t *testing.T) {
	var rules []RedirectEdge
	for i := 0; i < 500; i++ {
		rules = append(rules, RedirectEdge{
			ID:     uint64(i + 1),
			Source: fmt.Sprintf("/p%d", i),
			Target: fmt.Sprintf("/p%d", i+1),
		})
	}

	assert.False(t, WouldCreateLoop("/p500", "/end", rules, nil))
	assert.True(t, WouldCreateLoop("/p500", "/p0", rules, nil))
}

func TestFindRedirectCycles(t *testing.T) {
	rules := []RedirectEdge{
		{ID: 1, Source: "/a", Target: "/b"},
		{ID: 2, Source: "/b", Target: "/a"},
		{ID: 3, Source: "/c", Target: "/d"},
		{ID: 4, Source: "/x", Target: "/y"},
		{ID: 5, Source: "/y", Target: "/z"},
		{ID: 6, Source: "/z", Target: "/y"},
		{ID: 7, Source: "/self", Target: "/Self/"},
	}

	cycles := FindRedirectCycles(rules)

	assert.ElementsMatch(t, [][]string{
		{"/a", "/b"},
		{"/y", "/z"},
		{"/self"},
	}, cycles)
}

func TestFindRedirectCycles_Acyclic(t *testing.T) {
	rules := []RedirectEdge{
		{ID: 1, Source: "/a", Target: "/b"},
		{ID: 2, Source: "/b", Target: "/c"},
	}
	assert.Empty(t, FindRedirectCycles(rules))
}
