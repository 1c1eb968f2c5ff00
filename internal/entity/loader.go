package entity

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sportsiq/backend/pkg/logger"
)

// LexiconFile is the on-disk shape of one domain lexicon.
type LexiconFile struct {
	Domain string   `yaml:"domain"`
	Terms  []string `yaml:"terms"`
}

// LoadDir registers a LexiconMatcher for every *.yaml file in dir. Missing
// dir is not an error; the registry simply stays empty.
func LoadDir(registry *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("Lexicon directory not found", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lexicon dir: %w", err)
	}

	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read lexicon %s: %w", e.Name(), err)
		}

		var file LexiconFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse lexicon %s: %w", e.Name(), err)
		}

		if file.Domain == "" {
			file.Domain = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		}

		matcher, err := NewLexiconMatcher(file.Domain, file.Terms)
		if err != nil {
			return fmt.Errorf("failed to build matcher for %s: %w", file.Domain, err)
		}

		registry.Register(file.Domain, matcher)
		logger.Info("Lexicon loaded",
			zap.String("domain", file.Domain),
			zap.Int("terms", len(file.Terms)),
		)
	}

	return nil
}

// LoadRosterFile scrapes lexicon terms from a saved roster page and
// registers them under domain, merging with any lexicon already loaded for
// that domain. Team and player lists stay maintainable as scraped data
// rather than code.
func LoadRosterFile(registry *Registry, domain, path, selector string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open roster %s: %w", path, err)
	}
	defer f.Close()

	terms, err := LoadRosterHTML(f, selector)
	if err != nil {
		return fmt.Errorf("failed to scrape roster %s: %w", path, err)
	}

	if existing, ok := registry.byName[domain].(*LexiconMatcher); ok {
		terms = append(append([]string{}, existing.terms...), terms...)
	}

	matcher, err := NewLexiconMatcher(domain, terms)
	if err != nil {
		return fmt.Errorf("failed to build matcher for %s: %w", domain, err)
	}

	registry.Register(domain, matcher)
	logger.Info("Roster lexicon loaded",
		zap.String("domain", domain),
		zap.String("path", path),
		zap.Int("terms", len(terms)),
	)
	return nil
}

// LoadRosterHTML extracts lexicon terms from a roster or squad page: the
// text of every node matched by selector becomes one term.
func LoadRosterHTML(r io.Reader, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster HTML: %w", err)
	}

	var terms []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		term := strings.TrimSpace(sel.Text())
		if term != "" {
			terms = append(terms, term)
		}
	})

	return terms, nil
}
