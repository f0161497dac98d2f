package version

import (
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.String(), "pgmanager version "+Version)
	assert.Contains(t, info.FullString(), "Git Commit: "+GitCommit)
}

func TestCheckServer(t *testing.T) {
	tests := []struct {
		provider string
		server   string
		ok       bool
	}{
		{"postgresql", "16.2", true},
		{"postgresql", "9.1.24", true},
		{"postgresql", "9.0", false},
		{"mysql", "8.0.36", true},
		{"mysql", "5.6.51", false},
		{"sqlite", "3.34.1", false},
		{"oracle", "1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"-"+tt.server, func(t *testing.T) {
			v, err := goversion.NewVersion(tt.server)
			require.NoError(t, err)
			ok, _, err := CheckServer(tt.provider, v)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
