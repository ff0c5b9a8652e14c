package sources

import (
	"testing"

	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawHit(sourceID string, sourceType domain.SourceType, pk string) domain.RawResult {
	return domain.RawResult{
		SourceRef: domain.SourceRef{ID: sourceID, Type: sourceType},
		Entity:    domain.RawResultEntity{PK: domain.PrimaryKey(pk), Text: sourceID + "/" + pk},
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	groups, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAggregateGroupsByFirstAppearance(t *testing.T) {
	results := []domain.RawResult{
		rawHit("A", domain.SourceTypeFile, "2"),
		rawHit("B", domain.SourceTypeFile, "1"),
		rawHit("A", domain.SourceTypeFile, "1"),
	}

	groups, err := Aggregate(results)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "A", groups[0].Source.ID)
	assert.Equal(t, "B", groups[1].Source.ID)
	assert.Equal(t, 0, groups[0].InsertionOrder)
	assert.Equal(t, 1, groups[1].InsertionOrder)

	require.Len(t, groups[0].Entities, 2)
	assert.Equal(t, domain.PrimaryKey("1"), groups[0].Entities[0].PK)
	assert.Equal(t, domain.PrimaryKey("2"), groups[0].Entities[1].PK)
}

func TestAggregateDeduplicatesByPrimaryKey(t *testing.T) {
	results := []domain.RawResult{
		rawHit("A", domain.SourceTypeFile, "1"),
		rawHit("A", domain.SourceTypeFile, "1"),
		rawHit("A", domain.SourceTypeFile, "2"),
	}

	groups, err := Aggregate(results)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Entities, 2)
}

func TestAggregateKeepsGroupOrderOnLaterAppearances(t *testing.T) {
	results := []domain.RawResult{
		rawHit("A", domain.SourceTypeURL, "1"),
		rawHit("B", domain.SourceTypeURL, "1"),
		rawHit("C", domain.SourceTypeURL, "1"),
		rawHit("B", domain.SourceTypeURL, "2"),
		rawHit("A", domain.SourceTypeURL, "2"),
	}

	groups, err := Aggregate(results)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "A", groups[0].Source.ID)
	assert.Equal(t, "B", groups[1].Source.ID)
	assert.Equal(t, "C", groups[2].Source.ID)
}

func TestAggregateSortsNumericKeysNumerically(t *testing.T) {
	results := []domain.RawResult{
		rawHit("A", domain.SourceTypeFile, "10"),
		rawHit("A", domain.SourceTypeFile, "9"),
		rawHit("A", domain.SourceTypeFile, "100"),
	}

	groups, err := Aggregate(results)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	pks := make([]string, len(groups[0].Entities))
	for i, e := range groups[0].Entities {
		pks[i] = string(e.PK)
	}
	assert.Equal(t, []string{"9", "10", "100"}, pks)
}

func TestAggregateUnionEqualsInputMinusDuplicates(t *testing.T) {
	results := []domain.RawResult{
		rawHit("A", domain.SourceTypeFile, "3"),
		rawHit("B", domain.SourceTypeFile, "1"),
		rawHit("A", domain.SourceTypeFile, "3"),
		rawHit("A", domain.SourceTypeFile, "1"),
		rawHit("B", domain.SourceTypeFile, "2"),
	}

	groups, err := Aggregate(results)
	require.NoError(t, err)

	seen := map[string]bool{}
	total := 0
	for _, g := range groups {
		for _, e := range g.Entities {
			seen[g.Source.ID+"/"+string(e.PK)] = true
			total++
		}
	}
	assert.Equal(t, 4, total)
	assert.True(t, seen["A/3"])
	assert.True(t, seen["A/1"])
	assert.True(t, seen["B/1"])
	assert.True(t, seen["B/2"])
}

func TestAggregateMissingPrimaryKey(t *testing.T) {
	results := []domain.RawResult{
		{
			SourceRef: domain.SourceRef{ID: "broken.pdf", Type: domain.SourceTypeFile},
			Entity:    domain.RawResultEntity{Text: "no pk"},
		},
	}

	groups, err := Aggregate(results)
	require.Error(t, err)
	assert.Nil(t, groups)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeInvalidEntity, domainErr.Code)
	assert.Contains(t, err.Error(), "broken.pdf")
}
