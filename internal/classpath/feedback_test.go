package classpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFeedback(t *testing.T) {
	fb := &recordingFeedback{}
	require.NoError(t, SetFeedback(fb))
	defer ClearFeedback()

	assert.ErrorIs(t, SetFeedback(&recordingFeedback{}), ErrFeedbackRegistered)

	root := writeTree(t, layeredTree)
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first")), Archive(filepath.Join(root, "gone.jar"))})
	ix.InsureInitialized()
	assert.Equal(t, 1, fb.starts)
	assert.Equal(t, 1, fb.endings)
	assert.Len(t, fb.mapped, 2)
	assert.Len(t, fb.errs, 1)

	// An index-level sink takes precedence over the process-wide one.
	own := &recordingFeedback{}
	NewIndex([]Entry{Dir(filepath.Join(root, "first"))}, WithFeedback(own)).InsureInitialized()
	assert.Len(t, own.mapped, 1)
	assert.Len(t, fb.mapped, 2)

	ClearFeedback()
	require.NoError(t, SetFeedback(own))
}
