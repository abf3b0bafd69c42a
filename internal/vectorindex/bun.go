package vectorindex

import (
	"context"
	"database/sql"

	"github.com/smilemakc/orchestrate/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// commandEntryModel is the bun row shape for one persisted CommandEntry.
// The embedding is stored as a float32 slice; bun serializes it through
// its default array handling for Postgres.
type commandEntryModel struct {
	bun.BaseModel `bun:"table:command_entries,alias:c"`

	Name        string    `bun:"name,pk"`
	Section     string    `bun:"section"`
	Synopsis    string    `bun:"synopsis"`
	Description string    `bun:"description"`
	Embedding   []float32 `bun:"embedding,type:real[]"`
}

func (m commandEntryModel) toDomain() domain.CommandEntry {
	return domain.CommandEntry{
		Name:        m.Name,
		Section:     m.Section,
		Synopsis:    m.Synopsis,
		Description: m.Description,
		Embedding:   m.Embedding,
	}
}

func fromDomain(e domain.CommandEntry) commandEntryModel {
	return commandEntryModel{
		Name:        e.Name,
		Section:     e.Section,
		Synopsis:    e.Synopsis,
		Description: e.Description,
		Embedding:   e.Embedding,
	}
}

// BunIndex persists CommandEntry rows to Postgres via bun, giving the
// vector index the process-restart survival the spec's storage policy
// (§4.3) requires. Search still ranks in Go: the corpus is small enough
// (man pages on one host) that pushing cosine similarity into SQL buys
// nothing here.
type BunIndex struct {
	db *bun.DB
}

// NewBunIndex opens a bun.DB against dsn using the pgdriver/pgdialect
// stack.
func NewBunIndex(dsn string) *BunIndex {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunIndex{db: db}
}

// InitSchema creates the command_entries table if it does not exist.
func (b *BunIndex) InitSchema(ctx context.Context) error {
	_, err := b.db.NewCreateTable().Model((*commandEntryModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (b *BunIndex) Upsert(ctx context.Context, entries []domain.CommandEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]commandEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = fromDomain(e)
	}
	_, err := b.db.NewInsert().
		Model(&rows).
		On("CONFLICT (name) DO UPDATE").
		Set("section = EXCLUDED.section").
		Set("synopsis = EXCLUDED.synopsis").
		Set("description = EXCLUDED.description").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	return err
}

func (b *BunIndex) Search(ctx context.Context, query []float32, k int, threshold float64) ([]domain.SearchResult, error) {
	var rows []commandEntryModel
	if err := b.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, err
	}

	candidates := make([]scored, 0, len(rows))
	for _, r := range rows {
		e := r.toDomain()
		candidates = append(candidates, scored{entry: e, score: cosineSimilarity(query, e.Embedding)})
	}
	return rank(candidates, k, threshold), nil
}

func (b *BunIndex) Count(ctx context.Context) (int, error) {
	return b.db.NewSelect().Model((*commandEntryModel)(nil)).Count(ctx)
}

func (b *BunIndex) Clear(ctx context.Context) error {
	_, err := b.db.NewTruncateTable().Model((*commandEntryModel)(nil)).Exec(ctx)
	return err
}
