package waspweb

import (
	"time"

	"github.com/google/uuid"
)

// Script is the public metadata row of a script joined with its protected
// sub-record. ID is assigned by the repository on insert and never changes.
type Script struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Content       string          `json:"content"`
	Categories    []string        `json:"categories"`
	Subcategories []string        `json:"subcategories"`
	Published     bool            `json:"published"`
	MinXP         int             `json:"min_xp"`
	MaxXP         int             `json:"max_xp"`
	MinGP         int             `json:"min_gp"`
	MaxGP         int             `json:"max_gp"`
	Protected     ScriptProtected `json:"scripts_protected"`
	Author        *ProfilePublic  `json:"author,omitempty"`
	Stats         *ScriptStats    `json:"stats_scripts,omitempty"`
	Tooltips      []Tooltip       `json:"tooltips,omitempty"`
}

// ScriptProtected holds the fields only the author, admins and the database
// itself may write.
type ScriptProtected struct {
	AuthorID   uuid.UUID `json:"author_id"`
	Revision   int       `json:"revision"`
	AssetsPath string    `json:"assets_path"`
	AssetsAlt  string    `json:"assets_alt"`
}

// ScriptStats are the usage aggregates reported for a script.
type ScriptStats struct {
	Experience        int64 `json:"experience"`
	Gold              int64 `json:"gold"`
	Runtime           int64 `json:"runtime"`
	Levels            int64 `json:"levels"`
	TotalUniqueUsers  int64 `json:"total_unique_users"`
	TotalCurrentUsers int64 `json:"total_current_users"`
	TotalMonthlyUsers int64 `json:"total_monthly_users"`
}

// ScriptCard is the minimal script projection used for sitemaps.
type ScriptCard struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	AuthorUsername string    `json:"username"`
}

// Category is a top-level script category.
type Category struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// SubCategory belongs to a Category.
type SubCategory struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
}

// Tooltip is a category or subcategory badge attached to a script card.
type Tooltip struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// ProfilePublic is the publicly readable part of a user profile.
type ProfilePublic struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	DiscordID string    `json:"discord_id,omitempty"`
}

// Profile is a user profile with its protected and private sub-records.
type Profile struct {
	ProfilePublic
	Protected ProfileProtected `json:"profiles_protected"`
	Private   ProfilePrivate   `json:"profiles_private"`
}

// ProfileProtected is only writable by the admin service account.
type ProfileProtected struct {
	Administrator      bool   `json:"administrator"`
	Moderator          bool   `json:"moderator"`
	Scripter           bool   `json:"scripter"`
	Tester             bool   `json:"tester"`
	Premium            bool   `json:"premium"`
	VIP                bool   `json:"vip"`
	CustomerID         string `json:"customer_id"`
	SubscriptionID     string `json:"subscription_id"`
	SubscriptionStatus string `json:"subscription_status"`
}

// ProfilePrivate is only readable by the profile owner and admins.
type ProfilePrivate struct {
	Email string `json:"email"`
}

// Developer is a scripter's public developer page.
type Developer struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	Description string    `json:"description"`
	GitHub      string    `json:"github"`
	PaypalID    string    `json:"paypal_id"`
	Content     string    `json:"content"`
}

// Stat is a per-user aggregate row. The stats page adds a synthetic "Total" row.
type Stat struct {
	Username   string `json:"username"`
	Experience int64  `json:"experience"`
	Gold       int64  `json:"gold"`
	Levels     int64  `json:"levels"`
	Runtime    int64  `json:"runtime"`
}

// Add accumulates o into s, keeping s.Username.
func (s *Stat) Add(o Stat) {
	s.Experience += o.Experience
	s.Gold += o.Gold
	s.Levels += o.Levels
	s.Runtime += o.Runtime
}

// Tutorial is a written guide.
type Tutorial struct {
	ID          uuid.UUID      `json:"id"`
	Slug        string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Level       int            `json:"level"`
	Published   bool           `json:"published"`
	AuthorID    uuid.UUID      `json:"author_id"`
	Author      *ProfilePublic `json:"profiles_public,omitempty"`
}

// Package is a library distributed through the packages bucket.
type Package struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PackageVersion is one released version of a package.
type PackageVersion struct {
	Version string    `json:"version"`
	Updated time.Time `json:"updated_at"`
}

// User is the authenticated identity of a Session.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is an authenticated session issued by the auth service.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
