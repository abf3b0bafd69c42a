// Package corpus builds the authoritative CommandEntry set the rest of
// the engine searches against: it enumerates installed commands,
// extracts synopsis/description from their manual pages, and requests
// an embedding for each.
package corpus

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/embedding"
	"github.com/smilemakc/orchestrate/internal/vectorindex"
)

// maxDescriptionBytes bounds the DESCRIPTION section per §4.1's "bounded
// length (implementation-defined, e.g. 2 KB)".
const maxDescriptionBytes = 2048

// CommandLister enumerates installed commands via the system's keyword
// search facility. Abstracted behind an interface so tests can fake it
// without depending on the host's man database.
type CommandLister interface {
	List(ctx context.Context) ([]string, error)
}

// ManPageReader reads the raw manual page text for one command.
type ManPageReader interface {
	Read(ctx context.Context, name string) (string, error)
}

// Indexer is the Manual Indexer (C1).
type Indexer struct {
	lister ManPageReader
	names  CommandLister
	embed  *embedding.Provider
	index  vectorindex.Index
}

// NewIndexer wires the three collaborators the indexer needs.
func NewIndexer(names CommandLister, pages ManPageReader, embed *embedding.Provider, index vectorindex.Index) *Indexer {
	return &Indexer{lister: pages, names: names, embed: embed, index: index}
}

// BuildIndex enumerates commands, parses each manual page, embeds the
// result, and upserts into the vector index. Failures on individual
// commands are skipped and counted, never fatal (§4.1).
func (ix *Indexer) BuildIndex(ctx context.Context) (written, skipped int, err error) {
	names, err := ix.names.List(ctx)
	if err != nil {
		return 0, 0, err
	}

	entries := make([]domain.CommandEntry, 0, len(names))
	for _, name := range names {
		entry, ok := ix.buildEntry(ctx, name, "man")
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		if err := ix.index.Upsert(ctx, entries); err != nil {
			return 0, skipped, err
		}
	}
	return len(entries), skipped, nil
}

// Refresh re-indexes a single command. It returns true whenever the
// command's manual page was read, embedded and upserted, and false (with
// a nil error) when the page could not be read or embedded. It does not
// compare the rebuilt entry with the one already stored, so an entry
// whose content is unchanged also reports true.
func (ix *Indexer) Refresh(ctx context.Context, commandName string) (bool, error) {
	entry, ok := ix.buildEntry(ctx, commandName, "man")
	if !ok {
		return false, nil
	}
	if err := ix.index.Upsert(ctx, []domain.CommandEntry{entry}); err != nil {
		return false, err
	}
	return true, nil
}

// AddOrgEntry adds organizational prose as a corpus entry with
// section="org" (§4.1): it participates in search the same way a
// command does, using a synthetic synopsis/description instead of a
// manual page.
func (ix *Indexer) AddOrgEntry(ctx context.Context, name, synopsis, description string) error {
	entry := domain.CommandEntry{
		Name:        name,
		Section:     "org",
		Synopsis:    synopsis,
		Description: truncate(description, maxDescriptionBytes),
	}
	vec, err := ix.embed.Embed(ctx, entry.EmbeddingText())
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("skipping org entry, embedding failed")
		return nil
	}
	entry.Embedding = vec
	return ix.index.Upsert(ctx, []domain.CommandEntry{entry})
}

func (ix *Indexer) buildEntry(ctx context.Context, name, section string) (domain.CommandEntry, bool) {
	page, err := ix.lister.Read(ctx, name)
	if err != nil {
		log.Debug().Err(err).Str("command", name).Msg("no manual page, skipping")
		return domain.CommandEntry{}, false
	}

	synopsis, description := parseManPage(page)
	entry := domain.CommandEntry{
		Name:        name,
		Section:     section,
		Synopsis:    synopsis,
		Description: truncate(description, maxDescriptionBytes),
	}

	vec, err := ix.embed.Embed(ctx, entry.EmbeddingText())
	if err != nil {
		log.Warn().Err(err).Str("command", name).Msg("embedding failed, skipping command")
		return domain.CommandEntry{}, false
	}
	entry.Embedding = vec
	return entry, true
}

// parseManPage extracts the synopsis (first non-empty line after the
// SYNOPSIS header) and the description (paragraphs under DESCRIPTION,
// joined into one line with runs of whitespace collapsed to a single
// space), tolerating a malformed page by extracting as much as it finds (§4.1).
func parseManPage(page string) (synopsis, description string) {
	scanner := bufio.NewScanner(strings.NewReader(page))
	var section string
	var descLines []string

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case upper == "SYNOPSIS":
			section = "SYNOPSIS"
			continue
		case upper == "DESCRIPTION":
			section = "DESCRIPTION"
			continue
		case isHeader(trimmed) && section != "":
			section = ""
			continue
		}

		switch section {
		case "SYNOPSIS":
			if trimmed != "" && synopsis == "" {
				synopsis = trimmed
			}
		case "DESCRIPTION":
			descLines = append(descLines, trimmed)
		}
	}

	description = strings.Join(strings.Fields(strings.Join(descLines, " ")), " ")
	return synopsis, description
}

// isHeader guesses whether a line is a new all-caps section header, the
// same convention groff/mandoc pages use throughout.
func isHeader(line string) bool {
	if line == "" {
		return false
	}
	return line == strings.ToUpper(line) && strings.TrimSpace(line) == line && len(line) > 1 && !strings.HasPrefix(line, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// AproposLister lists commands via `apropos .` (equivalently `man -k .`),
// the system's keyword-search facility per §4.1.
type AproposLister struct{}

func (AproposLister) List(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "apropos", ".").Output()
	if err != nil {
		return nil, err
	}
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, " "); idx > 0 {
			names = append(names, line[:idx])
		}
	}
	return names, nil
}

// ManReader reads a manual page by shelling out to `man`, stripping
// pager control with MANPAGER=cat so the output is plain text.
type ManReader struct{}

func (ManReader) Read(ctx context.Context, name string) (string, error) {
	cmd := exec.CommandContext(ctx, "man", name)
	cmd.Env = append(os.Environ(), "MANPAGER=cat", "PAGER=cat")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
