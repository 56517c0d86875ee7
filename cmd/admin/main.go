package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/config"
	"github.com/waspscripts/wasp-web/pkg/waspweb/pages"
)

const usage = `Wasp Web Admin CLI

A lightweight admin tool for the script site. It reads the same environment as the server.

USAGE:
  admin <command> [options]

COMMANDS:
  developer   Show a developer and a page of their scripts
  stats       Show a page of the stats leaderboard
  versions    List the released versions of a package
  download    Print a stored script revision
  profile     Show a full profile (requires the admin service account)
  grant       Update the protected flags of a profile (requires the admin service account)

ENVIRONMENT VARIABLES:
  Run "server -env-help" for the full list. The most relevant ones are
  DATABASE_URL, DB_SCHEMA, STORAGE_TYPE, AUTH_URL, ADMIN_USER and ADMIN_PASS.

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin developer --slug=torwent --page=2
  admin stats --order=gold --ascending=true --search=torwent
  admin versions --package=wasplib
  admin download --script-id=550e8400-e29b-41d4-a716-446655440000 --revision=3
  admin profile --id=550e8400-e29b-41d4-a716-446655440000 --json
  admin grant --id=550e8400-e29b-41d4-a716-446655440000 --premium=true --vip=false

OPTIONS:
  --json    Output as JSON
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Check for help
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Println(usage)
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	res, err := cfg.Build(ctx)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	defer res.Close()

	assembler := pages.New(res.Repository,
		pages.WithPackageStore(res.Stores[waspweb.BucketPackages]),
		pages.WithSiteURL(cfg.SiteURL),
	)

	flags, useJSON := parseFlags(os.Args[2:])

	switch command {
	case "developer":
		err = handleDeveloper(ctx, os.Stdout, assembler, flags, useJSON)
	case "stats":
		err = handleStats(ctx, os.Stdout, assembler, flags, useJSON)
	case "versions":
		err = handleVersions(ctx, os.Stdout, assembler, flags, useJSON)
	case "download":
		err = handleDownload(ctx, os.Stdout, res.Publisher, flags)
	case "profile", "grant":
		if res.Auth == nil {
			log.Fatalf("AUTH_URL is required for %s", command)
		}
		session := waspweb.NewAdminSession(res.Auth, waspweb.Credentials{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		profiles := waspweb.NewAdminProfiles(session, res.Repository)
		if command == "profile" {
			err = handleProfile(ctx, os.Stdout, profiles, flags, useJSON)
		} else {
			err = handleGrant(ctx, os.Stdout, profiles, flags)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func parseFlags(args []string) (map[string]string, bool) {
	flags := map[string]string{}
	useJSON := false

	for _, arg := range args {
		if arg == "--json" {
			useJSON = true
			continue
		}

		// Parse key=value flags
		key, value := parseFlag(arg)
		if key != "" {
			flags[key] = value
		}
	}

	return flags, useJSON
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func handleDeveloper(ctx context.Context, out io.Writer, assembler *pages.Assembler, flags map[string]string, useJSON bool) error {
	page, err := assembler.DeveloperPage(ctx, pages.DeveloperRequest{
		Slug:   flags["slug"],
		Page:   flags["page"],
		Search: flags["search"],
	})
	if err != nil {
		return err
	}

	if useJSON {
		return writeJSON(out, page)
	}

	fmt.Fprintf(out, "Developer: %s (%s)\n\n", page.Developer.Username, page.Developer.ID)

	// Table output
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tREVISION\tCATEGORIES\n")
	for _, script := range page.Scripts {
		categories := ""
		for _, tip := range script.Tooltips {
			categories += tip.Emoji
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			script.ID.String()[:8]+"...",
			truncate(script.Title, 30),
			script.Protected.Revision,
			categories,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d\n", page.Count)
	return nil
}

func handleStats(ctx context.Context, out io.Writer, assembler *pages.Assembler, flags map[string]string, useJSON bool) error {
	page := assembler.StatsPage(ctx, pages.StatsRequest{
		Page:      flags["page"],
		Order:     flags["order"],
		Ascending: flags["ascending"],
		Search:    flags["search"],
	})
	if page.Error != "" {
		return fmt.Errorf("%s", page.Error)
	}

	if useJSON {
		return writeJSON(out, page)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "USERNAME\tEXPERIENCE\tGOLD\tLEVELS\tRUNTIME\n")
	for _, stat := range append(page.Stats, page.Total) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			truncate(stat.Username, 20),
			stat.Experience,
			stat.Gold,
			stat.Levels,
			time.Duration(stat.Runtime)*time.Millisecond,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nEntries: %d\n", page.Count)
	return nil
}

func handleVersions(ctx context.Context, out io.Writer, assembler *pages.Assembler, flags map[string]string, useJSON bool) error {
	versions, err := assembler.PackageVersions(ctx, flags["package"])
	if err != nil {
		return err
	}

	if useJSON {
		return writeJSON(out, versions)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VERSION\tUPDATED\n")
	for _, v := range versions {
		fmt.Fprintf(w, "%s\t%s\n", v.Version, v.Updated.Format(time.RFC3339))
	}
	return w.Flush()
}

func handleDownload(ctx context.Context, out io.Writer, publisher *waspweb.Publisher, flags map[string]string) error {
	id, err := uuid.Parse(flags["script-id"])
	if err != nil {
		return fmt.Errorf("invalid --script-id: %w", err)
	}

	revision := 0
	if raw, ok := flags["revision"]; ok {
		if revision, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("invalid --revision: %w", err)
		}
	}

	rc, err := publisher.Download(ctx, id, revision)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(out, rc)
	return err
}

func handleProfile(ctx context.Context, out io.Writer, profiles *waspweb.AdminProfiles, flags map[string]string, useJSON bool) error {
	id, err := uuid.Parse(flags["id"])
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}

	profile, err := profiles.GetProfile(ctx, id)
	if err != nil {
		return err
	}

	if useJSON {
		return writeJSON(out, profile)
	}

	p := profile.Protected
	fmt.Fprintf(out, "Username:      %s\n", profile.Username)
	fmt.Fprintf(out, "Email:         %s\n", profile.Private.Email)
	fmt.Fprintf(out, "Discord:       %s\n", profile.DiscordID)
	fmt.Fprintf(out, "Administrator: %t\n", p.Administrator)
	fmt.Fprintf(out, "Moderator:     %t\n", p.Moderator)
	fmt.Fprintf(out, "Scripter:      %t\n", p.Scripter)
	fmt.Fprintf(out, "Tester:        %t\n", p.Tester)
	fmt.Fprintf(out, "Premium:       %t\n", p.Premium)
	fmt.Fprintf(out, "VIP:           %t\n", p.VIP)
	return nil
}

// handleGrant reads the profile, flips the flags named on the command line
// and writes the protected record back.
func handleGrant(ctx context.Context, out io.Writer, profiles *waspweb.AdminProfiles, flags map[string]string) error {
	id, err := uuid.Parse(flags["id"])
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}

	profile, err := profiles.GetProfile(ctx, id)
	if err != nil {
		return err
	}

	targets := map[string]*bool{
		"administrator": &profile.Protected.Administrator,
		"moderator":     &profile.Protected.Moderator,
		"scripter":      &profile.Protected.Scripter,
		"tester":        &profile.Protected.Tester,
		"premium":       &profile.Protected.Premium,
		"vip":           &profile.Protected.VIP,
	}
	changed := 0
	for name, target := range targets {
		raw, ok := flags[name]
		if !ok {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*target = value
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("nothing to update")
	}

	if err := profiles.UpdateProfileProtected(ctx, profile); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %d flag(s) of %s\n", changed, profile.Username)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
