package canparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWarningsRejectsUnknownPolicy(t *testing.T) {
	_, err := NewWarnings(ErrorPolicy("explode"))
	assert.ErrorIs(t, err, ErrUnknownErrorPolicy)

	_, err = NewWarnings(PolicyIgnore)
	assert.NoError(t, err)
	_, err = NewWarnings(PolicyWarn)
	assert.NoError(t, err)
}

func TestWarningsIgnoreDropsEntries(t *testing.T) {
	w, err := NewWarnings(PolicyIgnore)
	require.NoError(t, err)

	w.record("bad line", errors.New("boom"))
	assert.Empty(t, w.Entries())
}

func TestWarningsWarnCollectsEntries(t *testing.T) {
	w, err := NewWarnings(PolicyWarn)
	require.NoError(t, err)

	w.record("bad line", errors.New("boom"))
	w.record("worse line", errors.New("bang"))

	entries := w.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "bad line: boom", entries[0])
	assert.Equal(t, "worse line: bang", entries[1])
}

func TestWarningsEscapeControlCharacters(t *testing.T) {
	w, err := NewWarnings(PolicyWarn)
	require.NoError(t, err)

	w.record("bad\tline\n", errors.New("boom"))

	entries := w.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, `bad\tline\n: boom`, entries[0])
}

func TestWarningsEntriesIsSnapshot(t *testing.T) {
	w, err := NewWarnings(PolicyWarn)
	require.NoError(t, err)

	w.record("a", errors.New("x"))
	first := w.Entries()
	w.record("b", errors.New("y"))

	assert.Len(t, first, 1)
	assert.Len(t, w.Entries(), 2)
}
