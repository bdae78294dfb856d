package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"Crème Brûlée", "creme-brulee"},
		{"Go 1.25 Release Notes", "go-1-25-release-notes"},
		{"ALL CAPS", "all-caps"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.title), "title %q", tc.title)
	}
}
