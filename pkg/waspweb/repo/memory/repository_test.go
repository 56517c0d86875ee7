package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/repo/memory"
)

func TestRepository_ListStatsSearchOrder(t *testing.T) {
	repo := memory.New()
	for _, s := range []waspweb.Stat{
		{Username: "wasp-c", Experience: 10},
		{Username: "wasp-a", Experience: 30},
		{Username: "other", Experience: 50},
		{Username: "wasp-b", Experience: 20},
		{Username: "wasp-a", Experience: 40},
	} {
		repo.PutStat(uuid.New(), s)
	}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		stats, err := repo.ListStats(ctx, waspweb.StatsQuery{Text: "wasp", Limit: 1})
		require.NoError(t, err)
		require.Len(t, stats, 4)
		assert.Equal(t, []waspweb.Stat{
			{Username: "wasp-a", Experience: 40},
			{Username: "wasp-a", Experience: 30},
			{Username: "wasp-b", Experience: 20},
			{Username: "wasp-c", Experience: 10},
		}, stats)
	}

	count, err := repo.CountStats(ctx, waspweb.StatsQuery{Text: "wasp"})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRepository_ListStatsPaged(t *testing.T) {
	repo := memory.New()
	for _, xp := range []int64{5, 50, 25} {
		repo.PutStat(uuid.New(), waspweb.Stat{Username: "u", Experience: xp})
	}

	stats, err := repo.ListStats(context.Background(), waspweb.StatsQuery{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(25), stats[0].Experience)
}
