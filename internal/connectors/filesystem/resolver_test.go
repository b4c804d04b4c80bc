package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file URL is converted to local path",
			uri:  "file:///srv/kb/vpn.html",
			want: "/srv/kb/vpn.html",
		},
		{
			name: "escaped spaces are decoded",
			uri:  "file:///srv/my%20docs/vpn.html",
			want: "/srv/my docs/vpn.html",
		},
		{
			name: "bare path passes through unchanged",
			uri:  "/srv/kb",
			want: "/srv/kb",
		},
		{
			name: "relative path passes through unchanged",
			uri:  "kb/pages",
			want: "kb/pages",
		},
		{
			name: "empty string",
			uri:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.uri))
		})
	}
}

func TestFileURL(t *testing.T) {
	t.Run("absolute path", func(t *testing.T) {
		assert.Equal(t, "file:///srv/kb/vpn.html", FileURL("/srv/kb/vpn.html"))
	})

	t.Run("spaces are escaped", func(t *testing.T) {
		assert.Equal(t, "file:///srv/my%20docs/a.html", FileURL("/srv/my docs/a.html"))
	})

	t.Run("round trips through LocalPath", func(t *testing.T) {
		assert.Equal(t, "/srv/my docs/a.html", LocalPath(FileURL("/srv/my docs/a.html")))
	})
}
