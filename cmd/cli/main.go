package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	client := newAPIClient(apiURL(), sessionFile())
	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "auth":
		err = handleAuth(client, args)
	case "admin":
		err = handleAdmin(client, args)
	case "feedback":
		err = handleFeedback(client, args)
	case "foundation":
		err = handleFoundation(client, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: connectcoach auth <signup|login|logout|me>")
		return nil
	}

	switch args[0] {
	case "signup":
		fs := pflag.NewFlagSet("signup", pflag.ExitOnError)
		email := fs.StringP("email", "e", "", "account email")
		password := fs.StringP("password", "p", "", "password (at least 8 characters)")
		code := fs.StringP("invite", "i", "", "invite code")
		fs.Parse(args[1:])

		u, err := c.signup(*email, *password, *code)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Account created: %s\n", u.Email)
	case "login":
		fs := pflag.NewFlagSet("login", pflag.ExitOnError)
		email := fs.StringP("email", "e", "", "account email")
		password := fs.StringP("password", "p", "", "password")
		fs.Parse(args[1:])

		u, err := c.login(*email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Logged in as: %s\n", u.Email)
	case "logout":
		if err := c.logout(); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
	case "me":
		u, err := c.me()
		if err != nil {
			return err
		}
		role := "member"
		if u.IsAdmin {
			role = "admin"
		}
		fmt.Printf("%s (id %d, %s)\n", u.Email, u.ID, role)
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
	return nil
}

func handleAdmin(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: connectcoach admin <invite|users|activate|deactivate>")
		return nil
	}

	switch args[0] {
	case "invite":
		inv, err := c.createInvite()
		if err != nil {
			return err
		}
		fmt.Printf("Invite code: %s\nInvite URL:  %s\n", inv.InviteCode, inv.InviteURL)
	case "users":
		users, err := c.listUsers()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tADMIN\tACTIVE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%s\n", u.ID, u.Email, u.IsAdmin, u.IsActive, u.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()
	case "activate", "deactivate":
		if len(args) < 2 {
			return fmt.Errorf("usage: connectcoach admin %s <user-id>", args[0])
		}
		msg, err := c.setActive(args[1], args[0] == "activate")
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
	default:
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
	return nil
}

func handleFeedback(c *apiClient, args []string) error {
	fs := pflag.NewFlagSet("feedback", pflag.ExitOnError)
	tool := fs.StringP("tool", "t", "contentCritique", "tool identifier, e.g. socialPost or week1Recognition")
	file := fs.StringP("file", "f", "-", "file with the content to analyse, - for stdin")
	voice := fs.String("voice-guide", "", "file with an additional voice guide")
	week := fs.String("week-guide", "", "file with a week implementation guide")
	fs.Parse(args)

	content, err := readInput(*file)
	if err != nil {
		return err
	}
	req := feedbackRequest{Content: content, ToolType: *tool}
	if *voice != "" {
		if req.VoiceGuide, err = readInput(*voice); err != nil {
			return err
		}
	}
	if *week != "" {
		if req.WeekGuide, err = readInput(*week); err != nil {
			return err
		}
	}

	feedback, err := c.feedback(req)
	if err != nil {
		return err
	}
	fmt.Println(feedback)
	return nil
}

func handleFoundation(c *apiClient, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: connectcoach foundation <get|set>")
		return nil
	}

	switch args[0] {
	case "get":
		f, err := c.getFoundation()
		if err != nil {
			return err
		}
		if f == nil {
			fmt.Println("No foundation saved")
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case "set":
		fs := pflag.NewFlagSet("foundation set", pflag.ExitOnError)
		file := fs.StringP("file", "f", "-", "JSON file with the foundation fields, - for stdin")
		fs.Parse(args[1:])

		raw, err := readInput(*file)
		if err != nil {
			return err
		}
		var f foundation
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return fmt.Errorf("invalid foundation JSON: %w", err)
		}
		msg, err := c.saveFoundation(f)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
	default:
		return fmt.Errorf("unknown foundation command: %s", args[0])
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func apiURL() string {
	if url := os.Getenv("CONNECTCOACH_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func sessionFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".connectcoach", "session")
}

func printUsage() {
	fmt.Print(`ConnectCoach CLI

Usage:
  connectcoach <command> [options]

Commands:
  auth        Account session (signup, login, logout, me)
  admin       Admin operations (invite, users, activate, deactivate)
  feedback    Analyse content with a coaching tool
  foundation  Read or replace your foundation (get, set)
  help        Show this help message

Environment Variables:
  CONNECTCOACH_API    API endpoint (default: http://localhost:8080)

Examples:
  connectcoach auth signup --email you@example.com --password secret123 --invite <code>
  connectcoach auth login -e you@example.com -p secret123
  connectcoach admin invite
  connectcoach feedback --tool socialPost --file post.txt
  connectcoach foundation set --file foundation.json
`)
}
