package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDiffIDs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"plain", []string{"123456"}, []string{"123456"}},
		{"phabricator form", []string{"D123456"}, []string{"123456"}},
		{"whitespace", []string{" 42 "}, []string{"42"}},
		{"page path", []string{"D98765.html"}, []string{"D98765.html"}},
		{"bare D", []string{"D"}, []string{"D"}},
		{"several", []string{"D1", "2"}, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDiffIDs(tt.args))
		})
	}
}
