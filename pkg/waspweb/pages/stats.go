package pages

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"golang.org/x/sync/errgroup"
)

const (
	// StatsPageSize is the number of leaderboard rows per page.
	StatsPageSize = 30
	// DefaultStatsEntries is reported as the entry count when none is known.
	DefaultStatsEntries = 10
	// DefaultStatsOrder is the column the leaderboard is ordered by by default.
	DefaultStatsOrder = "experience"
)

var statsOrders = map[string]bool{
	"username":   true,
	"experience": true,
	"gold":       true,
	"levels":     true,
	"runtime":    true,
}

// StatsRequest holds the raw query parameters of the stats page.
type StatsRequest struct {
	Page      string
	Order     string
	Ascending string
	Search    string
}

// StatsPage is the data of the stats leaderboard. A failed query yields a
// page with Status 500 and Error set instead of an error.
type StatsPage struct {
	Total  waspweb.Stat   `json:"total"`
	Stats  []waspweb.Stat `json:"stats"`
	Count  int            `json:"count"`
	Range  int            `json:"range"`
	Status int            `json:"status,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NewStatsQuery builds the leaderboard query from raw parameters. An empty
// search lists everyone with experience or gold, a v4 UUID selects one user
// and anything else is a text search on the username.
func NewStatsQuery(req StatsRequest) waspweb.StatsQuery {
	order := strings.ToLower(strings.TrimSpace(req.Order))
	if !statsOrders[order] {
		order = DefaultStatsOrder
	}

	rng := NewRange(ParsePage(req.Page), StatsPageSize)
	q := waspweb.StatsQuery{
		Order:     order,
		Ascending: strings.EqualFold(req.Ascending, "true"),
		Offset:    rng.Start,
		Limit:     rng.Limit(),
	}

	search := ParseSearch(req.Search)
	switch {
	case search == "":
	case IsUUIDv4(search):
		id := uuid.MustParse(search)
		q.UserID = &id
	default:
		q.Text = search
	}
	return q
}

// StatsPage loads one page of the leaderboard, its entry count and the
// aggregate total concurrently.
func (a *Assembler) StatsPage(ctx context.Context, req StatsRequest) *StatsPage {
	q := NewStatsQuery(req)

	var (
		stats []waspweb.Stat
		count int
		sum   waspweb.Stat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if stats, err = a.repository.ListStats(gctx, q); err != nil {
			return fmt.Errorf("The server failed to fetch data from the database. This is not an issue on your side! Error message:\n\n%w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if count, err = a.repository.CountStats(gctx, q); err != nil {
			return fmt.Errorf("The server failed to fetch data from the database. This is not an issue on your side! Error message:\n\n%w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sum, err = a.repository.StatsTotal(gctx); err != nil {
			return fmt.Errorf("The server failed to fetch total data from the database. This is not an issue on your side! Error message:\n\n%w", err)
		}
		return nil
	})

	total := waspweb.Stat{Username: "Total"}
	if err := g.Wait(); err != nil {
		a.logger.Error("Failed to load stats", "err", err)
		return &StatsPage{
			Total:  total,
			Stats:  []waspweb.Stat{},
			Count:  DefaultStatsEntries,
			Range:  StatsPageSize,
			Status: http.StatusInternalServerError,
			Error:  err.Error(),
		}
	}

	total.Add(sum)
	if count == 0 {
		count = DefaultStatsEntries
	}
	if stats == nil {
		stats = []waspweb.Stat{}
	}

	return &StatsPage{
		Total: total,
		Stats: stats,
		Count: count,
		Range: StatsPageSize,
	}
}
