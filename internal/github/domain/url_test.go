package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRepoURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://github.com/golang/go", "https://github.com/golang/go"},
		{"trailing slash", "https://github.com/golang/go/", "https://github.com/golang/go"},
		{"query", "https://github.com/golang/go?tab=readme", "https://github.com/golang/go"},
		{"fragment", "https://github.com/golang/go#readme", "https://github.com/golang/go"},
		{"query and fragment", "https://github.com/golang/go?a=b#c", "https://github.com/golang/go"},
		{"dots and dashes", "https://github.com/gin-gonic/gin.wiki", "https://github.com/gin-gonic/gin.wiki"},
		{"surrounding space", "  https://github.com/golang/go  ", "https://github.com/golang/go"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeRepoURL(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRepoURLRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"http scheme", "http://github.com/golang/go"},
		{"wrong host", "https://gitlab.com/golang/go"},
		{"missing repo", "https://github.com/golang"},
		{"extra path", "https://github.com/golang/go/tree/master"},
		{"not a url", "golang/go"},
		{"subdomain", "https://gist.github.com/golang/go"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeRepoURL(tc.in)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestSplitRepoURL(t *testing.T) {
	owner, repo, err := SplitRepoURL("https://github.com/gin-gonic/gin")
	assert.NoError(t, err)
	assert.Equal(t, "gin-gonic", owner)
	assert.Equal(t, "gin", repo)
}
