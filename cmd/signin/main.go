package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/GregMSThompson/savvi-sync/internal/bootstrap"
	"github.com/GregMSThompson/savvi-sync/internal/config"
	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type identity interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error)
	SignOut(ctx context.Context) error
}

// connect builds the identity adapter over the agent's local storage, so the
// session it persists is picked up by the agent on its next start.
var connect = func(ctx context.Context, configPath string) (identity, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	// stdout belongs to the user here
	cfg.LogLevel = "error"

	bs, err := bootstrap.RunIdentity(ctx, cfg)
	if err != nil {
		bs.Close()
		return nil, nil, err
	}
	return bs.Identity, bs.Close, nil
}

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Account email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	configPath := fs.String("config", "", "Path to config file")
	signOut := fs.Bool("signout", false, "Sign out and forget the stored session")
	status := fs.Bool("status", false, "Show who is signed in")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*signOut && !*status && *email == "" {
		fmt.Fprintln(stdout, "Usage: signin -email <email> [-password <password>] [-config <path>] | -status | -signout")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	ctx := context.Background()
	id, closeFn, err := connect(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer closeFn()

	switch {
	case *status:
		sess, err := id.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		if sess == nil {
			fmt.Fprintln(stdout, "Not signed in")
			return nil
		}
		fmt.Fprintf(stdout, "Signed in as %s (%s)\n", sess.User.Email, sess.User.ID)
		return nil
	case *signOut:
		if err := id.SignOut(ctx); err != nil {
			return fmt.Errorf("failed to sign out: %w", err)
		}
		fmt.Fprintln(stdout, "Signed out")
		return nil
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	resp, err := id.SignIn(ctx, strings.TrimSpace(*email), password)
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}
	if resp == nil || resp.Session == nil {
		return fmt.Errorf("sign in failed: no session returned, confirm your email first")
	}

	fmt.Fprintf(stdout, "Signed in as %s (%s)\n", resp.Session.User.Email, resp.Session.User.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// non-terminal input: pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
