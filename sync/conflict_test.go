// ABOUTME: Tests for conflict detection, resolution strategies, and the merge fast path
// ABOUTME: Includes the strategy scenario matrix and the recency-vs-remote bias distinction
package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealstash/models"
)

var (
	t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func code(id string, dateAdded time.Time) models.DiscountCode {
	return models.DiscountCode{
		ID:        id,
		Code:      "CODE-" + id,
		Store:     "Store",
		Discount:  "10%",
		Category:  models.CategoryOther,
		DateAdded: dateAdded,
	}
}

func TestDetectConflictsIdentical(t *testing.T) {
	a := testCodes()
	assert.Empty(t, DetectConflicts(a, a), "identical collections have no conflicts")
}

func TestDetectConflictsSingleFieldDiff(t *testing.T) {
	local := testCodes()
	remote := testCodes()
	remote[0].TimesUsed = 99

	conflicts := DetectConflicts(local, remote)
	require.Len(t, conflicts, 1, "one differing shared-id code means exactly one conflict")
	assert.Equal(t, local[0].ID, conflicts[0].ID)
	assert.Equal(t, local[0], conflicts[0].Local)
	assert.Equal(t, remote[0], conflicts[0].Remote)
	assert.False(t, conflicts[0].Resolved)
}

func TestDetectConflictsFlagOnlyDiff(t *testing.T) {
	local := testCodes()
	remote := testCodes()
	remote[1].IsArchived = true

	conflicts := DetectConflicts(local, remote)
	require.Len(t, conflicts, 1, "flag-only differences are still conflicts")
	assert.Equal(t, local[1].ID, conflicts[0].ID)
}

func TestDetectConflictsAdditionsAreNotConflicts(t *testing.T) {
	local := []models.DiscountCode{code("only-local", t0)}
	remote := []models.DiscountCode{code("only-remote", t0)}

	assert.Empty(t, DetectConflicts(local, remote), "one-sided codes are additions, not conflicts")
}

func TestDetectConflictsNormalizesZones(t *testing.T) {
	local := []models.DiscountCode{code("1", t0)}
	remote := []models.DiscountCode{code("1", t0.In(time.FixedZone("CET", 3600)))}

	assert.Empty(t, DetectConflicts(local, remote),
		"the same instant in different zones is not drift")
}

func TestDetectConflictsOrderFollowsLocal(t *testing.T) {
	local := []models.DiscountCode{code("b", t0), code("a", t0)}
	remote := []models.DiscountCode{code("a", t1), code("b", t1)}

	conflicts := DetectConflicts(local, remote)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "b", conflicts[0].ID)
	assert.Equal(t, "a", conflicts[1].ID)
}

// Strategy scenario: local has timesUsed=2/not-favorite/older, remote has
// timesUsed=5/favorite/newer.
func strategyScenario() (local, remote models.DiscountCode) {
	local = code("1", t0)
	local.TimesUsed = 2
	local.Description = "local words"

	remote = code("1", t1)
	remote.TimesUsed = 5
	remote.IsFavorite = true
	remote.Description = "remote words"
	return local, remote
}

func TestResolveConflictsStrategies(t *testing.T) {
	localCode, remoteCode := strategyScenario()
	local := []models.DiscountCode{localCode}
	remote := []models.DiscountCode{remoteCode}
	conflicts := DetectConflicts(local, remote)
	require.Len(t, conflicts, 1)

	t.Run("local keeps the local snapshot", func(t *testing.T) {
		result := ResolveConflicts(conflicts, StrategyLocal, local, remote)
		require.Len(t, result, 1)
		assert.Equal(t, localCode, result[0])
	})

	t.Run("remote replaces with the remote snapshot", func(t *testing.T) {
		result := ResolveConflicts(conflicts, StrategyRemote, local, remote)
		require.Len(t, result, 1)
		assert.Equal(t, remoteCode, result[0])
	})

	t.Run("merge is remote-biased with combined signal", func(t *testing.T) {
		result := ResolveConflicts(conflicts, StrategyMerge, local, remote)
		require.Len(t, result, 1)

		merged := result[0]
		assert.Equal(t, 5, merged.TimesUsed, "timesUsed takes the max")
		assert.True(t, merged.IsFavorite, "isFavorite is ORed")
		assert.True(t, merged.DateAdded.Equal(t1), "dateAdded takes the later instant")
		assert.Equal(t, "remote words", merged.Description, "all other fields come from remote")
	})
}

func TestResolveConflictsMergeKeepsLocalUsage(t *testing.T) {
	localCode, remoteCode := strategyScenario()
	localCode.TimesUsed = 9 // local has used it more

	local := []models.DiscountCode{localCode}
	remote := []models.DiscountCode{remoteCode}
	conflicts := DetectConflicts(local, remote)
	require.Len(t, conflicts, 1)

	result := ResolveConflicts(conflicts, StrategyMerge, local, remote)
	require.Len(t, result, 1)
	assert.Equal(t, 9, result[0].TimesUsed, "usage signal must never be lost")
}

func TestResolveConflictsPassesAdditionsThrough(t *testing.T) {
	localOnly := code("local-only", t0)
	remoteOnly := code("remote-only", t1)
	localCode, remoteCode := strategyScenario()

	local := []models.DiscountCode{localCode, localOnly}
	remote := []models.DiscountCode{remoteCode, remoteOnly}
	conflicts := DetectConflicts(local, remote)

	result := ResolveConflicts(conflicts, StrategyRemote, local, remote)
	require.Len(t, result, 3)

	// Local order first, then remote-only additions in remote order.
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "local-only", result[1].ID)
	assert.Equal(t, "remote-only", result[2].ID)
	assert.Equal(t, remoteOnly, result[2], "remote-only additions pass through unchanged")
}

func TestMergeCodesDisjointUnion(t *testing.T) {
	local := []models.DiscountCode{code("a", t0), code("b", t0)}
	remote := []models.DiscountCode{code("c", t1), code("d", t1)}

	merged := MergeCodes(local, remote)
	require.Len(t, merged, 4, "disjoint sets union with no loss and no duplicates")

	seen := map[string]bool{}
	for _, c := range merged {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "d", merged[3].ID)
}

func TestMergeCodesRecencyBias(t *testing.T) {
	local := code("1", t0)
	local.Description = "older local"
	local.TimesUsed = 7

	remote := code("1", t1)
	remote.Description = "newer remote"
	remote.TimesUsed = 3
	remote.IsFavorite = true

	merged := MergeCodes([]models.DiscountCode{local}, []models.DiscountCode{remote})
	require.Len(t, merged, 1)

	got := merged[0]
	assert.Equal(t, "newer remote", got.Description, "the later dateAdded side wins as base")
	assert.Equal(t, 7, got.TimesUsed, "timesUsed is always the max of both sides")
	assert.True(t, got.IsFavorite, "isFavorite is always the OR of both sides")
}

func TestMergeCodesBaseDiffersFromResolveMerge(t *testing.T) {
	// Local is newer here; MergeCodes keeps the local base while
	// ResolveConflicts' merge strategy would keep the remote base.
	local := code("1", t1)
	local.Description = "newer local"
	remote := code("1", t0)
	remote.Description = "older remote"

	fast := MergeCodes([]models.DiscountCode{local}, []models.DiscountCode{remote})
	require.Len(t, fast, 1)
	assert.Equal(t, "newer local", fast[0].Description)

	conflicts := DetectConflicts([]models.DiscountCode{local}, []models.DiscountCode{remote})
	require.Len(t, conflicts, 1)
	resolved := ResolveConflicts(conflicts, StrategyMerge, []models.DiscountCode{local}, []models.DiscountCode{remote})
	require.Len(t, resolved, 1)
	assert.Equal(t, "older remote", resolved[0].Description,
		"resolution merge stays remote-biased even when local is newer")
	assert.True(t, resolved[0].DateAdded.Equal(t1), "but dateAdded still takes the later instant")
}
