package storage

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFromURL(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestArchiveSigner_RoundTrip(t *testing.T) {
	signer, err := NewArchiveSigner("secret", "https://api.example.com/", time.Hour)
	require.NoError(t, err)

	req := ArchiveRequest{PublicIDs: []string{"submissions/a/b/c"}, ResourceType: ResourceImage, FlattenFolders: true}
	link, err := signer.URL(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://api.example.com"+ArchiveDownloadPath+"?token="), link)

	got, err := signer.Verify(tokenFromURL(t, link))
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestArchiveSigner_Expired(t *testing.T) {
	signer, err := NewArchiveSigner("secret", "https://api.example.com", time.Minute)
	require.NoError(t, err)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	link, err := signer.URL(ArchiveRequest{PublicIDs: []string{"x"}})
	require.NoError(t, err)

	signer.now = time.Now
	_, err = signer.Verify(tokenFromURL(t, link))
	assert.True(t, errors.Is(err, ErrInvalidArchive))
}

func TestArchiveSigner_Tampered(t *testing.T) {
	signer, err := NewArchiveSigner("secret", "https://api.example.com", time.Hour)
	require.NoError(t, err)
	other, err := NewArchiveSigner("another-secret", "https://api.example.com", time.Hour)
	require.NoError(t, err)

	link, err := other.URL(ArchiveRequest{PublicIDs: []string{"x"}})
	require.NoError(t, err)

	_, err = signer.Verify(tokenFromURL(t, link))
	assert.True(t, errors.Is(err, ErrInvalidArchive))

	_, err = signer.Verify("")
	assert.True(t, errors.Is(err, ErrInvalidArchive))

	_, err = signer.Verify("garbage")
	assert.True(t, errors.Is(err, ErrInvalidArchive))
}

func TestArchiveSigner_EmptyRequest(t *testing.T) {
	signer, err := NewArchiveSigner("secret", "", 0)
	require.NoError(t, err)

	_, err = signer.URL(ArchiveRequest{})
	assert.ErrorIs(t, err, ErrEmptyArchive)
}

func TestNewArchiveSigner_RequiresSecret(t *testing.T) {
	_, err := NewArchiveSigner("", "https://api.example.com", time.Hour)
	assert.Error(t, err)
}
