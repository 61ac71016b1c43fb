package controller

import (
	"fmt"

	"github.com/vanderheijden86/schoolmap/pkg/category"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/search"
	"github.com/vanderheijden86/schoolmap/pkg/store"
)

// Dataset is everything derived from one load of the school data. It is
// immutable; a reload builds a new Dataset.
type Dataset struct {
	Store      *store.Store
	Categories *category.Index
	Search     *search.Index
}

// DatasetConfig configures NewDataset.
type DatasetConfig struct {
	Store  store.Options
	Search search.Config
}

// NewDataset enriches features with the lookup and builds the category and
// search indexes. A dataset without any school is a load failure.
func NewDataset(features []loader.Feature, lookup loader.Lookup, cfg DatasetConfig) (*Dataset, error) {
	s, err := store.Load(features, lookup, cfg.Store)
	if err != nil {
		return nil, err
	}
	return FromStore(s, cfg.Search)
}

// FromStore builds the indexes over an existing store.
func FromStore(s *store.Store, cfg search.Config) (*Dataset, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: no schools found", model.ErrLoad)
	}
	idx := category.Build(s)
	ds := &Dataset{
		Store:      s,
		Categories: idx,
		Search:     search.Build(s, idx, cfg),
	}
	st := s.Stats()
	debug.Log("dataset: %d schools (%d enriched, %d unmatched, %d skipped), %d regions, %d districts",
		s.Len(), st.Enriched, st.Unmatched, st.Skipped,
		idx.Len(model.DimRegions), idx.Len(model.DimDistricts))
	return ds, nil
}
