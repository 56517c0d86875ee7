package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"golang.org/x/sync/errgroup"
)

// DeveloperPageSize is the number of scripts shown per developer page.
const DeveloperPageSize = 5

// MsgDeveloperNotFound is the not found message of developer pages.
const MsgDeveloperNotFound = "Developer not found!"

// DeveloperRequest holds the raw route and query parameters of a developer page.
type DeveloperRequest struct {
	Slug   string
	Page   string
	Search string
}

// DeveloperPage is the data of a developer page.
type DeveloperPage struct {
	Developer *waspweb.Developer `json:"developer"`
	Scripts   []*waspweb.Script  `json:"scripts"`
	Count     int                `json:"count"`
	Range     int                `json:"range"`
}

// DeveloperPage loads a developer by username or id together with one page
// of their scripts. The scripts, their count and the category tables are
// queried concurrently.
func (a *Assembler) DeveloperPage(ctx context.Context, req DeveloperRequest) (*DeveloperPage, error) {
	if req.Slug == "" || strings.Contains(req.Slug, " ") {
		return nil, waspweb.NotFound(MsgDeveloperNotFound, waspweb.ErrDeveloperNotFound)
	}

	rng := NewRange(ParsePage(req.Page), DeveloperPageSize)
	search := ParseSearch(req.Search)

	developer, err := a.developer(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, waspweb.ErrDeveloperNotFound) {
			return nil, waspweb.NotFound(MsgDeveloperNotFound, err)
		}
		a.logger.Error("Failed to load developer", "slug", req.Slug, "err", err)
		return nil, serverError("SELECT developers", err)
	}

	query := waspweb.ScriptQuery{
		AuthorID: developer.ID,
		Search:   search,
		Offset:   rng.Start,
		Limit:    rng.Limit(),
	}

	var (
		scripts       []*waspweb.Script
		count         int
		categories    []waspweb.Category
		subcategories []waspweb.SubCategory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if scripts, err = a.repository.ListScripts(gctx, query); err != nil {
			return serverError("SELECT scripts_public", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if count, err = a.repository.CountScripts(gctx, query); err != nil {
			return serverError("SELECT scripts_public count", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = a.catalog.ListCategories(gctx); err != nil {
			return serverError("SELECT scripts_categories", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if subcategories, err = a.catalog.ListSubCategories(gctx); err != nil {
			return serverError("SELECT scripts_subcategories", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		a.logger.Error("Failed to load developer page", "developer_id", developer.ID, "err", err)
		return nil, err
	}

	for _, script := range scripts {
		AddTooltips(script, categories, subcategories)
	}
	if scripts == nil {
		scripts = []*waspweb.Script{}
	}

	return &DeveloperPage{
		Developer: developer,
		Scripts:   scripts,
		Count:     count,
		Range:     DeveloperPageSize,
	}, nil
}

func (a *Assembler) developer(ctx context.Context, slug string) (*waspweb.Developer, error) {
	if IsUUIDv4(slug) {
		return a.repository.GetDeveloperByID(ctx, uuid.MustParse(slug))
	}
	return a.repository.GetDeveloper(ctx, slug)
}

// AddTooltips attaches a tooltip for each of the script's categories and
// subcategories that is present in the reference tables, in script order.
func AddTooltips(script *waspweb.Script, categories []waspweb.Category, subcategories []waspweb.SubCategory) {
	script.Tooltips = script.Tooltips[:0]

	for _, name := range script.Categories {
		for _, c := range categories {
			if c.Name == name {
				script.Tooltips = append(script.Tooltips, waspweb.Tooltip{Name: c.Name, Emoji: c.Emoji})
				break
			}
		}
	}
	for _, name := range script.Subcategories {
		for _, c := range subcategories {
			if c.Name == name {
				script.Tooltips = append(script.Tooltips, waspweb.Tooltip{Name: c.Name, Emoji: c.Emoji})
				break
			}
		}
	}
}
