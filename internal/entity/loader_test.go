package entity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	lexicon := "domain: basketball\nterms:\n  - lakers\n  - lebron james\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basketball.yaml"), []byte(lexicon), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	registry := NewRegistry()
	require.NoError(t, LoadDir(registry, dir))

	assert.Equal(t, []string{"basketball"}, registry.Domains())
	assert.Equal(t, []string{"lakers"}, registry.Extract("go lakers"))
}

func TestLoadDir_DomainDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "soccer.yml"), []byte("terms:\n  - haaland\n"), 0o644))

	registry := NewRegistry()
	require.NoError(t, LoadDir(registry, dir))

	assert.Equal(t, []string{"soccer"}, registry.Domains())
}

func TestLoadDir_MissingDirIsNotAnError(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, LoadDir(registry, filepath.Join(t.TempDir(), "absent")))
	assert.Empty(t, registry.Domains())
}

func TestLoadDir_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("domain: [unclosed"), 0o644))

	err := LoadDir(NewRegistry(), dir)
	assert.Error(t, err)
}

func TestLoadRosterFile_MergesIntoExistingDomain(t *testing.T) {
	dir := t.TempDir()

	lexicon := "domain: basketball\nterms:\n  - lakers\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basketball.yaml"), []byte(lexicon), 0o644))

	roster := `<html><body><table>
		<tr><td class="player-name">Austin Reaves</td></tr>
		<tr><td class="player-name">Rui Hachimura</td></tr>
	</table></body></html>`
	rosterPath := filepath.Join(dir, "roster.html")
	require.NoError(t, os.WriteFile(rosterPath, []byte(roster), 0o644))

	registry := NewRegistry()
	require.NoError(t, LoadDir(registry, dir))
	require.NoError(t, LoadRosterFile(registry, "basketball", rosterPath, "td.player-name"))

	// Scraped terms extend the file-loaded lexicon instead of replacing it.
	assert.Equal(t, []string{"austin reaves", "lakers"}, registry.Extract("Austin Reaves stayed with the Lakers"))
	assert.Equal(t, []string{"basketball"}, registry.Domains())
}

func TestLoadRosterFile_MissingFile(t *testing.T) {
	registry := NewRegistry()
	err := LoadRosterFile(registry, "basketball", filepath.Join(t.TempDir(), "absent.html"), "td")
	assert.Error(t, err)
}

func TestLoadRosterHTML(t *testing.T) {
	html := `<html><body>
		<table class="roster">
			<tr><td class="player-name">Stephen Curry</td></tr>
			<tr><td class="player-name"> Klay Thompson </td></tr>
			<tr><td class="player-name"></td></tr>
		</table>
	</body></html>`

	terms, err := LoadRosterHTML(strings.NewReader(html), "td.player-name")
	require.NoError(t, err)

	assert.Equal(t, []string{"Stephen Curry", "Klay Thompson"}, terms)
}
