package codes

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/dyike/bestfour/internal/models"
)

const defaultSearchSize = 20

// Index is an in-memory full text index over a registry.
type Index struct {
	index    bleve.Index
	registry *Registry
}

// NewIndex indexes every registry entry by code and name.
func NewIndex(r *Registry) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for _, info := range r.All() {
		if err := batch.Index(info.Code, info); err != nil {
			return nil, fmt.Errorf("failed to add to batch: %w", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to execute batch: %w", err)
	}
	return &Index{index: index, registry: r}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	codeMapping := bleve.NewDocumentMapping()

	codeField := bleve.NewTextFieldMapping()
	codeField.Analyzer = keyword.Name
	codeMapping.AddFieldMappingsAt("code", codeField)

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = "cjk"
	codeMapping.AddFieldMappingsAt("name", nameField)

	groupField := bleve.NewTextFieldMapping()
	groupField.Analyzer = "cjk"
	codeMapping.AddFieldMappingsAt("group", groupField)

	for _, skip := range []string{"type", "isin", "start", "market", "cfi"} {
		disabled := bleve.NewTextFieldMapping()
		disabled.Index = false
		codeMapping.AddFieldMappingsAt(skip, disabled)
	}

	indexMapping.DefaultMapping = codeMapping
	return indexMapping
}

// Search matches a code prefix or words of the name and industry group.
// size <= 0 uses the default result count.
func (i *Index) Search(q string, size int) ([]models.CodeInfo, error) {
	if size <= 0 {
		size = defaultSearchSize
	}

	prefix := bleve.NewPrefixQuery(q)
	prefix.SetField("code")
	prefix.SetBoost(2)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")

	group := bleve.NewMatchQuery(q)
	group.SetField("group")
	group.SetBoost(0.5)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(prefix, name, group))
	req.Size = size

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search codes: %w", err)
	}

	out := make([]models.CodeInfo, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if info, ok := i.registry.Lookup(hit.ID); ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (i *Index) Close() error {
	return i.index.Close()
}
