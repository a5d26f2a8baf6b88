package commentpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name       string
		parentPath string
		parentID   int
		childID    int
		want       string
	}{
		{"top level", "", NoParent, 1, "1"},
		{"reply to root", "1", 1, 2, "1-2"},
		{"reply to reply", "1-2", 2, 3, "1-2-3"},
		{"large ids", "17-204", 204, 9001, "17-204-9001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.parentPath, tt.parentID, tt.childID))
		})
	}
}

func TestChildLevel(t *testing.T) {
	assert.Equal(t, 0, ChildLevel(VirtualRootLevel))
	assert.Equal(t, 1, ChildLevel(0))
	assert.Equal(t, 5, ChildLevel(4))
}

func TestDescendantPattern(t *testing.T) {
	assert.Equal(t, "%", DescendantPattern(""))
	assert.Equal(t, "1-%", DescendantPattern("1"))
	assert.Equal(t, "1-2-%", DescendantPattern("1-2"))
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		path     string
		ancestor string
		want     bool
	}{
		{"1-2", "1", true},
		{"1-2-3", "1", true},
		{"1-2-3", "1-2", true},
		{"1", "1", false},
		{"12", "1", false},
		{"12-3", "1", false},
		{"1", "", true},
		{"", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDescendant(tt.path, tt.ancestor), "path=%q ancestor=%q", tt.path, tt.ancestor)
	}
}
