package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderUserListSortsNames(t *testing.T) {
	out := RenderUserList([]string{"carol", "alice", "bob"})
	aIdx := strings.Index(out, "alice")
	bIdx := strings.Index(out, "bob")
	cIdx := strings.Index(out, "carol")
	assert.True(t, aIdx < bIdx && bIdx < cIdx)
}

func TestRenderFileLongIncludesAccessSummary(t *testing.T) {
	files := []*FileMetadata{
		{Filename: "notes.txt", Owner: "alice", AccessList: []AccessEntry{{Username: "bob", Permission: PermRead}}},
	}
	out := RenderFileLong(files)
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob:R")
}

func TestRenderInfoIncludesAnnotation(t *testing.T) {
	fm := &FileMetadata{Filename: "notes.txt", Owner: "alice", Annotation: "draft"}
	out := RenderInfo(fm)
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, "notes.txt")
}
