// Package sources implements the search-result aggregation and
// presentation pipeline: raw backend hits are grouped by originating
// document, then converted into display-ready records.
package sources

import (
	"sort"

	"github.com/casefold-ai/lexgate/internal/domain"
)

// Aggregate merges raw search hits into per-document groups. Groups keep
// the order in which their source first appeared in the input; entities
// within a group are deduplicated by primary key and sorted ascending by
// it. An entity without a primary key is a defect in the upstream data
// contract and fails the whole call.
func Aggregate(results []domain.RawResult) ([]*domain.SourceGroup, error) {
	groupsByID := make(map[string]*domain.SourceGroup)
	ordered := make([]*domain.SourceGroup, 0, len(results))

	for i := range results {
		r := results[i]
		if err := domain.ValidateRawResult(&r); err != nil {
			return nil, err
		}

		group, ok := groupsByID[r.ID]
		if !ok {
			group = &domain.SourceGroup{
				Source:         r.SourceRef,
				Entities:       []domain.RawResultEntity{r.Entity},
				InsertionOrder: len(groupsByID),
			}
			groupsByID[r.ID] = group
			ordered = append(ordered, group)
			continue
		}

		if containsPK(group.Entities, r.Entity.PK) {
			continue
		}
		group.Entities = append(group.Entities, r.Entity)
	}

	for _, group := range ordered {
		entities := group.Entities
		sort.SliceStable(entities, func(i, j int) bool {
			return entities[i].PK.Less(entities[j].PK)
		})
	}

	return ordered, nil
}

func containsPK(entities []domain.RawResultEntity, pk domain.PrimaryKey) bool {
	for i := range entities {
		if entities[i].PK == pk {
			return true
		}
	}
	return false
}
