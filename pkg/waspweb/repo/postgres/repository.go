package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// DefaultSchema is the schema the site tables live in.
const DefaultSchema = "public"

// Repository implements waspweb.Repository using PostgreSQL
type Repository struct {
	db     DBTX
	schema string
}

// Option configures the Repository
type Option func(*Repository)

// WithSchema sets the schema the tables are read from.
func WithSchema(schema string) Option {
	return func(r *Repository) {
		if schema != "" {
			r.schema = schema
		}
	}
}

// New creates a new PostgreSQL repository
func New(db DBTX, options ...Option) *Repository {
	r := &Repository{db: db, schema: DefaultSchema}
	for _, option := range options {
		option(r)
	}
	return r
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool, options ...Option) *Repository {
	return New(pool, options...)
}

var _ waspweb.Repository = (*Repository)(nil)

func (r *Repository) table(name string) string {
	return pgx.Identifier{r.schema, name}.Sanitize()
}

// run executes fn against the database. When ctx carries JWT claims, fn runs
// in a transaction with the claims and the authenticated role set, so that
// row level security policies see the caller.
func (r *Repository) run(ctx context.Context, fn func(db DBTX) error) error {
	claims, ok := waspweb.ClaimsFromContext(ctx)
	if !ok {
		return fn(r.db)
	}

	encoded, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return r.handlePostgresError("begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('request.jwt.claims', $1, true)", string(encoded)); err != nil {
		return r.handlePostgresError("set claims", err)
	}
	if role, _ := claims["role"].(string); role != "" {
		if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{role}.Sanitize()); err != nil {
			return r.handlePostgresError("set role", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42501": // insufficient_privilege
			return fmt.Errorf("permission denied in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Script operations

func (r *Repository) CreateScript(ctx context.Context, script *waspweb.Script) error {
	return r.run(ctx, func(db DBTX) error {
		tx, err := db.Begin(ctx)
		if err != nil {
			return r.handlePostgresError("create script", err)
		}
		defer tx.Rollback(ctx)

		query := `
			INSERT INTO ` + r.table("scripts_public") + ` (
				title, description, content, categories, subcategories,
				min_xp, max_xp, min_gp, max_gp
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`

		var id uuid.UUID
		err = tx.QueryRow(ctx, query,
			script.Title, script.Description, script.Content,
			script.Categories, script.Subcategories,
			script.MinXP, script.MaxXP, script.MinGP, script.MaxGP).Scan(&id)
		if err != nil {
			return r.handlePostgresError("create script", err)
		}

		revision := script.Protected.Revision
		if revision == 0 {
			revision = 1
		}

		// A trigger may already have created the protected row.
		query = `
			INSERT INTO ` + r.table("scripts_protected") + ` (id, author_id, revision)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET author_id = EXCLUDED.author_id, revision = EXCLUDED.revision`
		if _, err := tx.Exec(ctx, query, id, script.Protected.AuthorID, revision); err != nil {
			return r.handlePostgresError("create script protected", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return r.handlePostgresError("create script", err)
		}

		script.ID = id
		script.Protected.Revision = revision
		return nil
	})
}

func (r *Repository) UpdateScript(ctx context.Context, script *waspweb.Script) error {
	query := `
		UPDATE ` + r.table("scripts_public") + ` SET
			title = $2, description = $3, content = $4, categories = $5,
			subcategories = $6, min_xp = $7, max_xp = $8, min_gp = $9, max_gp = $10
		WHERE id = $1`

	return r.run(ctx, func(db DBTX) error {
		tag, err := db.Exec(ctx, query,
			script.ID, script.Title, script.Description, script.Content,
			script.Categories, script.Subcategories,
			script.MinXP, script.MaxXP, script.MinGP, script.MaxGP)
		if err != nil {
			return r.handlePostgresError("update script", err)
		}
		if tag.RowsAffected() == 0 {
			return waspweb.ErrScriptNotFound
		}
		return nil
	})
}

func (r *Repository) SetScriptRevision(ctx context.Context, id uuid.UUID, revision int) error {
	query := `UPDATE ` + r.table("scripts_protected") + ` SET revision = $2 WHERE id = $1 AND revision < $2`

	return r.run(ctx, func(db DBTX) error {
		tag, err := db.Exec(ctx, query, id, revision)
		if err != nil {
			return r.handlePostgresError("set script revision", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("script %s has no revision below %d: %w", id, revision, waspweb.ErrScriptNotFound)
		}
		return nil
	})
}

// scriptColumns are scanned by scanScript in this order.
var scriptColumns = []string{
	"p.id", "p.title", "p.description", "p.content", "p.categories", "p.subcategories",
	"p.published", "p.min_xp", "p.max_xp", "p.min_gp", "p.max_gp",
	"sp.author_id", "sp.revision", "COALESCE(sp.assets_path, '')", "COALESCE(sp.assets_alt, '')",
	"pp.username", "pp.avatar_url",
	"ss.id IS NOT NULL",
	"COALESCE(ss.experience, 0)", "COALESCE(ss.gold, 0)", "COALESCE(ss.runtime, 0)", "COALESCE(ss.levels, 0)",
	"COALESCE(ss.total_unique_users, 0)", "COALESCE(ss.total_current_users, 0)", "COALESCE(ss.total_monthly_users, 0)",
}

func (r *Repository) scriptSelect(columns ...string) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).
		From(r.table("scripts_public")+" p").
		Join(r.table("scripts_protected")+" sp", "sp.id = p.id").
		JoinWithOption(sqlbuilder.LeftJoin, r.table("profiles_public")+" pp", "pp.id = sp.author_id").
		JoinWithOption(sqlbuilder.LeftJoin, r.table("stats_scripts")+" ss", "ss.id = p.id")
	return sb
}

func scanScript(row pgx.Row) (*waspweb.Script, error) {
	var script waspweb.Script
	var username, avatarURL *string
	var hasStats bool
	var stats waspweb.ScriptStats

	err := row.Scan(
		&script.ID, &script.Title, &script.Description, &script.Content,
		&script.Categories, &script.Subcategories, &script.Published,
		&script.MinXP, &script.MaxXP, &script.MinGP, &script.MaxGP,
		&script.Protected.AuthorID, &script.Protected.Revision,
		&script.Protected.AssetsPath, &script.Protected.AssetsAlt,
		&username, &avatarURL,
		&hasStats,
		&stats.Experience, &stats.Gold, &stats.Runtime, &stats.Levels,
		&stats.TotalUniqueUsers, &stats.TotalCurrentUsers, &stats.TotalMonthlyUsers)
	if err != nil {
		return nil, err
	}

	if username != nil {
		script.Author = &waspweb.ProfilePublic{
			ID:       script.Protected.AuthorID,
			Username: *username,
		}
		if avatarURL != nil {
			script.Author.AvatarURL = *avatarURL
		}
	}
	if hasStats {
		script.Stats = &stats
	}
	return &script, nil
}

func (r *Repository) GetScript(ctx context.Context, id uuid.UUID) (*waspweb.Script, error) {
	sb := r.scriptSelect(scriptColumns...)
	sb.Where(sb.Equal("p.id", id))
	query, args := sb.Build()

	var script *waspweb.Script
	err := r.run(ctx, func(db DBTX) error {
		var err error
		script, err = scanScript(db.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return waspweb.ErrScriptNotFound
		}
		if err != nil {
			return r.handlePostgresError("get script", err)
		}
		return nil
	})
	return script, err
}

func (r *Repository) filterScripts(sb *sqlbuilder.SelectBuilder, q waspweb.ScriptQuery) {
	if q.AuthorID != uuid.Nil {
		sb.Where(sb.Equal("sp.author_id", q.AuthorID))
	}
	if q.Search != "" {
		sb.Where("p.search_script ILIKE " + sb.Var("%"+q.Search+"%"))
	}
}

func (r *Repository) ListScripts(ctx context.Context, q waspweb.ScriptQuery) ([]*waspweb.Script, error) {
	sb := r.scriptSelect(scriptColumns...)
	r.filterScripts(sb, q)
	sb.OrderBy("p.title").Asc()
	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sb.Offset(q.Offset)
	}
	query, args := sb.Build()

	var scripts []*waspweb.Script
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query, args...)
		if err != nil {
			return r.handlePostgresError("list scripts", err)
		}
		defer rows.Close()

		for rows.Next() {
			script, err := scanScript(rows)
			if err != nil {
				return r.handlePostgresError("list scripts", err)
			}
			scripts = append(scripts, script)
		}
		return rows.Err()
	})
	return scripts, err
}

func (r *Repository) CountScripts(ctx context.Context, q waspweb.ScriptQuery) (int, error) {
	sb := r.scriptSelect("COUNT(*)")
	r.filterScripts(sb, q)
	query, args := sb.Build()

	var count int
	err := r.run(ctx, func(db DBTX) error {
		if err := db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			return r.handlePostgresError("count scripts", err)
		}
		return nil
	})
	return count, err
}

func (r *Repository) ListScriptCards(ctx context.Context) ([]waspweb.ScriptCard, error) {
	query := `
		SELECT p.id, p.title, COALESCE(pp.username, '')
		FROM ` + r.table("scripts_public") + ` p
		JOIN ` + r.table("scripts_protected") + ` sp ON sp.id = p.id
		LEFT JOIN ` + r.table("profiles_public") + ` pp ON pp.id = sp.author_id
		ORDER BY p.title ASC`

	var cards []waspweb.ScriptCard
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return r.handlePostgresError("list script cards", err)
		}
		defer rows.Close()

		for rows.Next() {
			var card waspweb.ScriptCard
			if err := rows.Scan(&card.ID, &card.Title, &card.AuthorUsername); err != nil {
				return r.handlePostgresError("list script cards", err)
			}
			cards = append(cards, card)
		}
		return rows.Err()
	})
	return cards, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]waspweb.Category, error) {
	query := `SELECT name, emoji FROM ` + r.table("scripts_categories")

	var categories []waspweb.Category
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return r.handlePostgresError("list categories", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c waspweb.Category
			if err := rows.Scan(&c.Name, &c.Emoji); err != nil {
				return r.handlePostgresError("list categories", err)
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})
	return categories, err
}

func (r *Repository) ListSubCategories(ctx context.Context) ([]waspweb.SubCategory, error) {
	query := `SELECT category, name, emoji FROM ` + r.table("scripts_subcategories")

	var subcategories []waspweb.SubCategory
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return r.handlePostgresError("list subcategories", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c waspweb.SubCategory
			if err := rows.Scan(&c.Category, &c.Name, &c.Emoji); err != nil {
				return r.handlePostgresError("list subcategories", err)
			}
			subcategories = append(subcategories, c)
		}
		return rows.Err()
	})
	return subcategories, err
}

// Developer operations

func (r *Repository) developerQuery(where string) string {
	return `
		SELECT d.id, pp.username, COALESCE(pp.avatar_url, ''), COALESCE(d.description, ''),
		       COALESCE(d.github, ''), COALESCE(d.paypal_id, ''), COALESCE(d.content, '')
		FROM ` + r.table("developers") + ` d
		JOIN ` + r.table("profiles_public") + ` pp ON pp.id = d.id
		` + where
}

func scanDeveloper(row pgx.Row) (*waspweb.Developer, error) {
	var d waspweb.Developer
	err := row.Scan(&d.ID, &d.Username, &d.AvatarURL, &d.Description, &d.GitHub, &d.PaypalID, &d.Content)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) getDeveloper(ctx context.Context, query string, arg interface{}) (*waspweb.Developer, error) {
	var developer *waspweb.Developer
	err := r.run(ctx, func(db DBTX) error {
		var err error
		developer, err = scanDeveloper(db.QueryRow(ctx, query, arg))
		if errors.Is(err, pgx.ErrNoRows) {
			return waspweb.ErrDeveloperNotFound
		}
		if err != nil {
			return r.handlePostgresError("get developer", err)
		}
		return nil
	})
	return developer, err
}

func (r *Repository) GetDeveloper(ctx context.Context, username string) (*waspweb.Developer, error) {
	return r.getDeveloper(ctx, r.developerQuery("WHERE lower(pp.username) = lower($1)"), username)
}

func (r *Repository) GetDeveloperByID(ctx context.Context, id uuid.UUID) (*waspweb.Developer, error) {
	return r.getDeveloper(ctx, r.developerQuery("WHERE d.id = $1"), id)
}

func (r *Repository) ListDevelopers(ctx context.Context) ([]waspweb.Developer, error) {
	query := r.developerQuery("ORDER BY pp.username ASC")

	var developers []waspweb.Developer
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return r.handlePostgresError("list developers", err)
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanDeveloper(rows)
			if err != nil {
				return r.handlePostgresError("list developers", err)
			}
			developers = append(developers, *d)
		}
		return rows.Err()
	})
	return developers, err
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*waspweb.Profile, error) {
	query := `
		SELECT pp.id, pp.username, COALESCE(pp.avatar_url, ''), COALESCE(pp.discord_id, ''),
		       COALESCE(pr.administrator, false), COALESCE(pr.moderator, false),
		       COALESCE(pr.scripter, false), COALESCE(pr.tester, false),
		       COALESCE(pr.premium, false), COALESCE(pr.vip, false),
		       COALESCE(pr.customer_id, ''), COALESCE(pr.subscription_id, ''),
		       COALESCE(pr.subscription_status, ''),
		       COALESCE(pv.email, '')
		FROM ` + r.table("profiles_public") + ` pp
		LEFT JOIN ` + r.table("profiles_protected") + ` pr ON pr.id = pp.id
		LEFT JOIN ` + r.table("profiles_private") + ` pv ON pv.id = pp.id
		WHERE pp.id = $1`

	var profile waspweb.Profile
	err := r.run(ctx, func(db DBTX) error {
		err := db.QueryRow(ctx, query, id).Scan(
			&profile.ID, &profile.Username, &profile.AvatarURL, &profile.DiscordID,
			&profile.Protected.Administrator, &profile.Protected.Moderator,
			&profile.Protected.Scripter, &profile.Protected.Tester,
			&profile.Protected.Premium, &profile.Protected.VIP,
			&profile.Protected.CustomerID, &profile.Protected.SubscriptionID,
			&profile.Protected.SubscriptionStatus,
			&profile.Private.Email)
		if errors.Is(err, pgx.ErrNoRows) {
			return waspweb.ErrProfileNotFound
		}
		if err != nil {
			return r.handlePostgresError("get profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) UpdateProfileProtected(ctx context.Context, id uuid.UUID, protected waspweb.ProfileProtected) error {
	query := `
		UPDATE ` + r.table("profiles_protected") + ` SET
			administrator = $2, moderator = $3, scripter = $4, tester = $5,
			premium = $6, vip = $7, customer_id = $8, subscription_id = $9,
			subscription_status = $10
		WHERE id = $1`

	return r.run(ctx, func(db DBTX) error {
		tag, err := db.Exec(ctx, query, id,
			protected.Administrator, protected.Moderator, protected.Scripter, protected.Tester,
			protected.Premium, protected.VIP, protected.CustomerID, protected.SubscriptionID,
			protected.SubscriptionStatus)
		if err != nil {
			return r.handlePostgresError("update profile protected", err)
		}
		if tag.RowsAffected() == 0 {
			return waspweb.ErrProfileNotFound
		}
		return nil
	})
}

// Stats operations

// statsOrderColumns whitelists the columns the leaderboard can be ordered by.
var statsOrderColumns = map[string]string{
	"username":   "username",
	"experience": "experience",
	"gold":       "gold",
	"levels":     "levels",
	"runtime":    "runtime",
}

func (r *Repository) statsSelect(q waspweb.StatsQuery, columns ...string) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(r.table("stats"))

	switch {
	case q.UserID != nil:
		sb.Where(sb.Equal(`"userID"`, *q.UserID))
	case strings.TrimSpace(q.Text) != "":
		sb.Where("to_tsvector(username) @@ plainto_tsquery(" + sb.Var(q.Text) + ")")
	default:
		sb.Where(sb.Or(sb.GreaterThan("experience", 0), sb.GreaterThan("gold", 0)))
	}
	return sb
}

func (r *Repository) ListStats(ctx context.Context, q waspweb.StatsQuery) ([]waspweb.Stat, error) {
	sb := r.statsSelect(q, "username", "experience", "gold", "levels", "runtime")
	if q.UserID == nil && strings.TrimSpace(q.Text) == "" {
		column, ok := statsOrderColumns[q.Order]
		if !ok {
			column = "experience"
		}
		sb.OrderBy(column)
		if q.Ascending {
			sb.Asc()
		} else {
			sb.Desc()
		}
		if q.Limit > 0 {
			sb.Limit(q.Limit)
		}
		if q.Offset > 0 {
			sb.Offset(q.Offset)
		}
	} else {
		sb.OrderBy("username", "experience DESC")
	}
	query, args := sb.Build()

	stats := []waspweb.Stat{}
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query, args...)
		if err != nil {
			return r.handlePostgresError("list stats", err)
		}
		defer rows.Close()

		for rows.Next() {
			var s waspweb.Stat
			if err := rows.Scan(&s.Username, &s.Experience, &s.Gold, &s.Levels, &s.Runtime); err != nil {
				return r.handlePostgresError("list stats", err)
			}
			stats = append(stats, s)
		}
		return rows.Err()
	})
	return stats, err
}

func (r *Repository) CountStats(ctx context.Context, q waspweb.StatsQuery) (int, error) {
	query, args := r.statsSelect(q, "COUNT(*)").Build()

	var count int
	err := r.run(ctx, func(db DBTX) error {
		if err := db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			return r.handlePostgresError("count stats", err)
		}
		return nil
	})
	return count, err
}

func (r *Repository) StatsTotal(ctx context.Context) (waspweb.Stat, error) {
	query := `
		SELECT COALESCE(experience, 0), COALESCE(gold, 0), COALESCE(levels, 0), COALESCE(runtime, 0)
		FROM ` + r.table("get_stats_total") + `()`

	var total waspweb.Stat
	err := r.run(ctx, func(db DBTX) error {
		err := db.QueryRow(ctx, query).Scan(&total.Experience, &total.Gold, &total.Levels, &total.Runtime)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return r.handlePostgresError("stats total", err)
		}
		return nil
	})
	return total, err
}

// Tutorial operations

func (r *Repository) tutorialQuery(where string) string {
	return `
		SELECT t.id, t.url, t.title, COALESCE(t.description, ''), COALESCE(t.content, ''),
		       t.level, t.published, t.author_id, pp.username, pp.avatar_url
		FROM ` + r.table("tutorials") + ` t
		LEFT JOIN ` + r.table("profiles_public") + ` pp ON pp.id = t.author_id
		` + where
}

func scanTutorial(row pgx.Row) (*waspweb.Tutorial, error) {
	var t waspweb.Tutorial
	var username, avatarURL *string
	err := row.Scan(&t.ID, &t.Slug, &t.Title, &t.Description, &t.Content,
		&t.Level, &t.Published, &t.AuthorID, &username, &avatarURL)
	if err != nil {
		return nil, err
	}
	if username != nil {
		t.Author = &waspweb.ProfilePublic{ID: t.AuthorID, Username: *username}
		if avatarURL != nil {
			t.Author.AvatarURL = *avatarURL
		}
	}
	return &t, nil
}

func (r *Repository) GetTutorial(ctx context.Context, slug string) (*waspweb.Tutorial, error) {
	query := r.tutorialQuery("WHERE t.url = $1")

	var tutorial *waspweb.Tutorial
	err := r.run(ctx, func(db DBTX) error {
		var err error
		tutorial, err = scanTutorial(db.QueryRow(ctx, query, slug))
		if errors.Is(err, pgx.ErrNoRows) {
			return waspweb.ErrTutorialNotFound
		}
		if err != nil {
			return r.handlePostgresError("get tutorial", err)
		}
		return nil
	})
	return tutorial, err
}

func (r *Repository) ListTutorials(ctx context.Context) ([]waspweb.Tutorial, error) {
	query := r.tutorialQuery("ORDER BY t.title ASC")

	var tutorials []waspweb.Tutorial
	err := r.run(ctx, func(db DBTX) error {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return r.handlePostgresError("list tutorials", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTutorial(rows)
			if err != nil {
				return r.handlePostgresError("list tutorials", err)
			}
			tutorials = append(tutorials, *t)
		}
		return rows.Err()
	})
	return tutorials, err
}

// Package operations

func (r *Repository) GetPackage(ctx context.Context, name string) (*waspweb.Package, error) {
	query := `SELECT id, name FROM ` + r.table("packages") + ` WHERE name = $1`

	var pkg waspweb.Package
	err := r.run(ctx, func(db DBTX) error {
		err := db.QueryRow(ctx, query, name).Scan(&pkg.ID, &pkg.Name)
		if errors.Is(err, pgx.ErrNoRows) {
			return waspweb.ErrPackageNotFound
		}
		if err != nil {
			return r.handlePostgresError("get package", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}
