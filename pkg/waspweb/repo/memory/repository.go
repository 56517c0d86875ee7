package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// Repository implements waspweb.Repository using in-memory storage
type Repository struct {
	mu            sync.RWMutex
	scripts       map[uuid.UUID]*waspweb.Script
	categories    []waspweb.Category
	subcategories []waspweb.SubCategory
	profiles      map[uuid.UUID]*waspweb.Profile
	developers    map[uuid.UUID]*waspweb.Developer
	stats         map[uuid.UUID]waspweb.Stat
	tutorials     map[string]*waspweb.Tutorial
	packages      map[string]*waspweb.Package
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		scripts:    make(map[uuid.UUID]*waspweb.Script),
		profiles:   make(map[uuid.UUID]*waspweb.Profile),
		developers: make(map[uuid.UUID]*waspweb.Developer),
		stats:      make(map[uuid.UUID]waspweb.Stat),
		tutorials:  make(map[string]*waspweb.Tutorial),
		packages:   make(map[string]*waspweb.Package),
	}
}

var _ waspweb.Repository = (*Repository)(nil)

// Seeding helpers

// AddCategory adds a script category.
func (r *Repository) AddCategory(c waspweb.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, c)
}

// AddSubCategory adds a script subcategory.
func (r *Repository) AddSubCategory(c waspweb.SubCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subcategories = append(r.subcategories, c)
}

// PutProfile stores a profile, assigning an ID when it has none.
func (r *Repository) PutProfile(p *waspweb.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	profileCopy := *p
	r.profiles[p.ID] = &profileCopy
}

// PutDeveloper stores a developer, assigning an ID when it has none.
func (r *Repository) PutDeveloper(d *waspweb.Developer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	developerCopy := *d
	r.developers[d.ID] = &developerCopy
}

// PutStat stores the stats row of a user.
func (r *Repository) PutStat(userID uuid.UUID, s waspweb.Stat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[userID] = s
}

// PutTutorial stores a tutorial keyed by its slug.
func (r *Repository) PutTutorial(t *waspweb.Tutorial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	tutorialCopy := *t
	r.tutorials[t.Slug] = &tutorialCopy
}

// PutPackage stores a package keyed by name.
func (r *Repository) PutPackage(p *waspweb.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	packageCopy := *p
	r.packages[p.Name] = &packageCopy
}

// Script operations

func (r *Repository) CreateScript(ctx context.Context, script *waspweb.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	script.ID = uuid.New()
	if script.Protected.Revision == 0 {
		script.Protected.Revision = 1
	}
	r.scripts[script.ID] = cloneScript(script)
	return nil
}

func (r *Repository) UpdateScript(ctx context.Context, script *waspweb.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.scripts[script.ID]
	if !ok {
		return waspweb.ErrScriptNotFound
	}

	// Only the public columns are writable through an update.
	updated := cloneScript(script)
	updated.Protected = existing.Protected
	updated.Published = existing.Published
	r.scripts[script.ID] = updated
	return nil
}

func (r *Repository) SetScriptRevision(ctx context.Context, id uuid.UUID, revision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.scripts[id]
	if !ok {
		return waspweb.ErrScriptNotFound
	}
	if revision <= existing.Protected.Revision {
		return fmt.Errorf("revision %d is not greater than current revision %d", revision, existing.Protected.Revision)
	}
	existing.Protected.Revision = revision
	return nil
}

func (r *Repository) GetScript(ctx context.Context, id uuid.UUID) (*waspweb.Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	script, ok := r.scripts[id]
	if !ok {
		return nil, waspweb.ErrScriptNotFound
	}
	return r.withAuthor(cloneScript(script)), nil
}

func (r *Repository) ListScripts(ctx context.Context, q waspweb.ScriptQuery) ([]*waspweb.Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.matchScripts(q)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Title < matches[j].Title
	})

	var out []*waspweb.Script
	for _, s := range page(len(matches), q.Offset, q.Limit) {
		out = append(out, r.withAuthor(cloneScript(matches[s])))
	}
	return out, nil
}

func (r *Repository) CountScripts(ctx context.Context, q waspweb.ScriptQuery) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchScripts(q)), nil
}

func (r *Repository) ListScriptCards(ctx context.Context) ([]waspweb.ScriptCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cards []waspweb.ScriptCard
	for _, s := range r.scripts {
		card := waspweb.ScriptCard{ID: s.ID, Title: s.Title}
		if p, ok := r.profiles[s.Protected.AuthorID]; ok {
			card.AuthorUsername = p.Username
		}
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Title < cards[j].Title
	})
	return cards, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]waspweb.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]waspweb.Category(nil), r.categories...), nil
}

func (r *Repository) ListSubCategories(ctx context.Context) ([]waspweb.SubCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]waspweb.SubCategory(nil), r.subcategories...), nil
}

func (r *Repository) matchScripts(q waspweb.ScriptQuery) []*waspweb.Script {
	search := strings.ToLower(q.Search)
	var matches []*waspweb.Script
	for _, s := range r.scripts {
		if q.AuthorID != uuid.Nil && s.Protected.AuthorID != q.AuthorID {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(s.Title + " " + s.Description + " " + s.Content)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matches = append(matches, s)
	}
	return matches
}

func (r *Repository) withAuthor(s *waspweb.Script) *waspweb.Script {
	if p, ok := r.profiles[s.Protected.AuthorID]; ok {
		author := p.ProfilePublic
		s.Author = &author
	}
	return s
}

// Developer operations

func (r *Repository) GetDeveloper(ctx context.Context, username string) (*waspweb.Developer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.developers {
		if strings.EqualFold(d.Username, username) {
			developerCopy := *d
			return &developerCopy, nil
		}
	}
	return nil, waspweb.ErrDeveloperNotFound
}

func (r *Repository) GetDeveloperByID(ctx context.Context, id uuid.UUID) (*waspweb.Developer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.developers[id]
	if !ok {
		return nil, waspweb.ErrDeveloperNotFound
	}
	developerCopy := *d
	return &developerCopy, nil
}

func (r *Repository) ListDevelopers(ctx context.Context) ([]waspweb.Developer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []waspweb.Developer
	for _, d := range r.developers {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*waspweb.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, waspweb.ErrProfileNotFound
	}
	profileCopy := *p
	return &profileCopy, nil
}

func (r *Repository) UpdateProfileProtected(ctx context.Context, id uuid.UUID, protected waspweb.ProfileProtected) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return waspweb.ErrProfileNotFound
	}
	p.Protected = protected
	return nil
}

// Stats operations

func (r *Repository) ListStats(ctx context.Context, q waspweb.StatsQuery) ([]waspweb.Stat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.matchStats(q)
	if q.UserID != nil || q.Text != "" {
		// Searches are unpaged and ordered by username.
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Username != matches[j].Username {
				return matches[i].Username < matches[j].Username
			}
			return statLess(matches[j], matches[i], "experience")
		})
		return matches, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		less := statLess(matches[i], matches[j], q.Order)
		if q.Ascending {
			return less
		}
		return statLess(matches[j], matches[i], q.Order)
	})

	var out []waspweb.Stat
	for _, i := range page(len(matches), q.Offset, q.Limit) {
		out = append(out, matches[i])
	}
	return out, nil
}

func (r *Repository) CountStats(ctx context.Context, q waspweb.StatsQuery) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchStats(q)), nil
}

func (r *Repository) StatsTotal(ctx context.Context) (waspweb.Stat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total waspweb.Stat
	for _, s := range r.stats {
		total.Add(s)
	}
	return total, nil
}

func (r *Repository) matchStats(q waspweb.StatsQuery) []waspweb.Stat {
	var matches []waspweb.Stat
	if q.UserID != nil {
		if s, ok := r.stats[*q.UserID]; ok {
			matches = append(matches, s)
		}
		return matches
	}

	words := strings.Fields(strings.ToLower(q.Text))
	for _, s := range r.stats {
		if len(words) > 0 {
			if !containsAll(strings.ToLower(s.Username), words) {
				continue
			}
		} else if s.Experience <= 0 && s.Gold <= 0 {
			continue
		}
		matches = append(matches, s)
	}
	return matches
}

func statLess(a, b waspweb.Stat, order string) bool {
	switch order {
	case "username":
		return a.Username < b.Username
	case "gold":
		return a.Gold < b.Gold
	case "levels":
		return a.Levels < b.Levels
	case "runtime":
		return a.Runtime < b.Runtime
	default:
		return a.Experience < b.Experience
	}
}

// Tutorial operations

func (r *Repository) GetTutorial(ctx context.Context, slug string) (*waspweb.Tutorial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tutorials[slug]
	if !ok {
		return nil, waspweb.ErrTutorialNotFound
	}
	tutorialCopy := *t
	if p, ok := r.profiles[t.AuthorID]; ok {
		author := p.ProfilePublic
		tutorialCopy.Author = &author
	}
	return &tutorialCopy, nil
}

func (r *Repository) ListTutorials(ctx context.Context) ([]waspweb.Tutorial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []waspweb.Tutorial
	for _, t := range r.tutorials {
		tutorialCopy := *t
		if p, ok := r.profiles[t.AuthorID]; ok {
			author := p.ProfilePublic
			tutorialCopy.Author = &author
		}
		out = append(out, tutorialCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Package operations

func (r *Repository) GetPackage(ctx context.Context, name string) (*waspweb.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packages[name]
	if !ok {
		return nil, waspweb.ErrPackageNotFound
	}
	packageCopy := *p
	return &packageCopy, nil
}

// page returns the indexes of the [offset, offset+limit) window of n items.
// A limit of zero or less means no limit.
func page(n, offset, limit int) []int {
	if offset < 0 {
		offset = 0
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	var idx []int
	for i := offset; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

func cloneScript(s *waspweb.Script) *waspweb.Script {
	c := *s
	c.Categories = append([]string(nil), s.Categories...)
	c.Subcategories = append([]string(nil), s.Subcategories...)
	c.Author = nil
	c.Tooltips = nil
	return &c
}
