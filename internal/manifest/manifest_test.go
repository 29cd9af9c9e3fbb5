package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion([]byte(`{
		"id": "1.18.2",
		"mainClass": "net.minecraft.client.main.Main",
		"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17},
		"arguments": {"game": ["--username", "${auth_player_name}", {"rules": [], "value": ["--width", "${resolution_width}"]}]},
		"libraries": [
			{"name": "a:b:1", "downloads": {"artifact": {"path": "a/b/1/b-1.jar", "url": "https://x/b.jar"}}},
			{"name": "c:d:2"},
			{"name": "e:f:3", "downloads": {"classifiers": {"natives-linux": {"path": "e/f.jar", "url": "https://x/f.jar"}}}}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 17, v.JavaMajor())
	assert.Equal(t, []string{"--username", "${auth_player_name}"}, v.GameArguments())
	assert.Empty(t, v.Path())

	assert.Equal(t, "a/b/1/b-1.jar", v.Libraries[0].ArtifactPath())
	assert.Equal(t, "https://x/b.jar", v.Libraries[0].ArtifactURL())
	assert.Empty(t, v.Libraries[1].ArtifactPath())
	assert.Empty(t, v.Libraries[1].ArtifactURL())
	assert.Nil(t, v.Libraries[1].Classifier("natives-linux"))
	require.NotNil(t, v.Libraries[2].Classifier("natives-linux"))
	assert.Equal(t, "https://x/f.jar", v.Libraries[2].Classifier("natives-linux").URL)
}

func TestParseVersionErrors(t *testing.T) {
	_, err := ParseVersion([]byte(`{"id": "x"}`))
	assert.ErrorIs(t, err, ErrNoLibraries)

	_, err = ParseVersion([]byte(`{`))
	assert.Error(t, err)
}

func TestLegacyVersionDefaults(t *testing.T) {
	v, err := ParseVersion([]byte(`{"id": "1.12.2", "minecraftArguments": "--username ${auth_player_name}", "libraries": []}`))
	require.NoError(t, err)

	assert.Equal(t, 8, v.JavaMajor())
	assert.Nil(t, v.GameArguments())
}

func TestLoadVersionKeepsPath(t *testing.T) {
	dir := t.TempDir()
	path := VersionPath(dir, "1.16.5")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "1.16.5", "libraries": []}`), 0644))

	v, err := LoadVersion(path)
	require.NoError(t, err)
	assert.Equal(t, path, v.Path())
	assert.Equal(t, filepath.Join(dir, "versions", "1.16.5", "1.16.5.jar"), JarPath(path))

	_, err = LoadVersion(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestForgeVersionID(t *testing.T) {
	assert.Equal(t, "1.16.5-forge-36.2.0", ForgeVersionID("1.16.5", "36.2.0"))
}

func TestParseAssetObjects(t *testing.T) {
	a, err := ParseAssetObjects([]byte(`{"objects": {"minecraft/sounds/a.ogg": {"hash": "0123abcd", "size": 10}}}`))
	require.NoError(t, err)
	assert.Equal(t, "0123abcd", a.Objects["minecraft/sounds/a.ogg"].Hash)

	_, err = ParseAssetObjects([]byte(`{"files": {}}`))
	assert.Error(t, err)
}

func TestPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"minecraft": {"version": "1.12.2", "modLoaders": [
			{"id": "forge-14.23.5.2854", "primary": false},
			{"id": "forge-14.23.5.2855", "primary": true}
		]},
		"name": "Pack",
		"files": [{"projectID": 1, "fileID": 2, "required": true}]
	}`), 0644))

	p, err := LoadPack(path)
	require.NoError(t, err)

	assert.Equal(t, "forge-14.23.5.2855", p.LoaderID())
	assert.Equal(t, "overrides", p.OverridesDir())
	assert.Equal(t, []PackFile{{ProjectID: 1, FileID: 2, Required: true}}, p.Files)

	p.Minecraft.ModLoaders[1].Primary = false
	assert.Equal(t, "forge-14.23.5.2854", p.LoaderID())

	p.Minecraft.ModLoaders = nil
	assert.Empty(t, p.LoaderID())
}

func TestSplitLoaderID(t *testing.T) {
	name, version := SplitLoaderID("forge-1.12.2-14.23.5.2847")
	assert.Equal(t, "forge", name)
	assert.Equal(t, "1.12.2-14.23.5.2847", version)

	name, version = SplitLoaderID("forge")
	assert.Equal(t, "forge", name)
	assert.Empty(t, version)
}
