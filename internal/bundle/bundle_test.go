package bundle

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/sound"
)

func TestEmbedded_HasEveryDefault(t *testing.T) {
	b := Embedded()

	for _, c := range sound.Categories() {
		t.Run(c.String(), func(t *testing.T) {
			asset, err := b.Resolve(c.DefaultAsset())
			require.NoError(t, err)
			assert.Equal(t, "embedded:"+c.DefaultAsset(), asset.Key)
			assert.Positive(t, asset.Size)

			rc, err := asset.Open()
			require.NoError(t, err)
			defer func() { _ = rc.Close() }()

			header := make([]byte, 4)
			_, err = io.ReadFull(rc, header)
			require.NoError(t, err)
			assert.Equal(t, "RIFF", string(header))
		})
	}
}

func TestResolve_Missing(t *testing.T) {
	b := Embedded()

	_, err := b.Resolve("Nope.wav")
	assert.ErrorIs(t, err, sound.ErrAssetNotFound)

	_, err = b.Resolve("")
	assert.ErrorIs(t, err, sound.ErrAssetNotFound)

	_, err = b.Resolve("/definitely/not/here.wav")
	assert.ErrorIs(t, err, sound.ErrAssetNotFound)
}

func TestResolve_DirShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IncomingCall.wav"), []byte("RIFFcustom"), 0644))

	b := NewDir(dir, Embedded())

	asset, err := b.Resolve("IncomingCall.wav")
	require.NoError(t, err)
	assert.Equal(t, dir+":IncomingCall.wav", asset.Key)
	assert.Equal(t, int64(10), asset.Size)

	asset, err = b.Resolve("OutgoingCall.wav")
	require.NoError(t, err)
	assert.Equal(t, "embedded:OutgoingCall.wav", asset.Key)
}

func TestNewDir_CleansPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IncomingCall.wav"), []byte("RIFF"), 0644))

	for _, raw := range []string{dir + "/", dir + "/./", filepath.Join(dir, "x") + "/.."} {
		b := NewDir(raw, nil)
		assert.Equal(t, dir, b.Dir(), raw)

		asset, err := b.Resolve("IncomingCall.wav")
		require.NoError(t, err, raw)
		assert.Equal(t, dir+":IncomingCall.wav", asset.Key, raw)
	}

	asset, err := Embedded().Resolve("file://" + dir + "/./IncomingCall.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "IncomingCall.wav"), asset.Key)
}

func TestResolve_FilePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ring.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0644))

	b := Embedded()

	asset, err := b.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, asset.Key)
	assert.Equal(t, "ring.ogg", asset.Name)

	asset, err = b.Resolve("file://" + path)
	require.NoError(t, err)
	assert.Equal(t, path, asset.Key)

	_, err = b.Resolve(dir)
	assert.ErrorIs(t, err, sound.ErrAssetNotFound, "directories are not assets")
}

func TestResolve_RejectsTraversal(t *testing.T) {
	b := NewDir(t.TempDir(), nil)
	_, err := b.Resolve("../etc/passwd")
	assert.ErrorIs(t, err, sound.ErrAssetNotFound)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IncomingMessage.wav"), []byte("RIFF"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.mp3"), []byte("ID3"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	entries, err := NewDir(dir, Embedded()).List()
	require.NoError(t, err)
	require.Len(t, entries, 6)

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.Equal(t, dir, byName["IncomingMessage.wav"].Source)
	assert.Equal(t, SourceEmbedded, byName["IncomingCall.wav"].Source)
	assert.Contains(t, byName, "extra.mp3")
	assert.NotContains(t, byName, "notes.txt")
}

func TestList_MissingDirFallsBack(t *testing.T) {
	entries, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Len(t, entries, len(sound.Categories()))
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IncomingCall.wav"), []byte("RIFFcustom"), 0644))
	other := filepath.Join(t.TempDir(), "ping.wav")
	require.NoError(t, os.WriteFile(other, []byte("RIFF"), 0644))

	b := NewDir(dir, Embedded())

	entry, err := b.Describe("IncomingCall.wav")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "IncomingCall.wav", Size: 10, Source: dir}, entry)

	entry, err = b.Describe("OutgoingMessage.wav")
	require.NoError(t, err)
	assert.Equal(t, SourceEmbedded, entry.Source)

	entry, err = b.Describe(other)
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "ping.wav", Size: 4, Source: SourceFile}, entry)

	_, err = b.Describe("Missing.wav")
	assert.ErrorIs(t, err, sound.ErrAssetNotFound)
}

func TestSlots(t *testing.T) {
	override := filepath.Join(t.TempDir(), "ring.wav")
	require.NoError(t, os.WriteFile(override, []byte("RIFFring"), 0644))

	cfg := config.DefaultConfig()
	cfg.Sounds.IncomingCall = override
	cfg.Sounds.OutgoingMessage = "/missing/sent.wav"

	slots := Embedded().Slots(cfg)
	require.Len(t, slots, len(sound.Categories()))

	call := slots[0]
	assert.Equal(t, sound.IncomingCall, call.Category)
	assert.True(t, call.Override)
	assert.Equal(t, override, call.Asset)
	assert.Equal(t, SourceFile, call.Source)
	assert.Equal(t, int64(8), call.Size)
	assert.Empty(t, call.Error)

	msg := slots[1]
	assert.False(t, msg.Override)
	assert.Equal(t, "IncomingMessage.wav", msg.Asset)
	assert.Equal(t, SourceEmbedded, msg.Source)
	assert.Positive(t, msg.Size)

	sent := slots[4]
	assert.True(t, sent.Override)
	assert.Contains(t, sent.Error, "asset not found")
}
