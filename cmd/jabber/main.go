// Command jabber relays git ref-update notifications to XMPP chat rooms.
//
// Subcommands:
//
//	hook    read "old new refname" lines on stdin (git post-receive
//	        contract), build notifications and deliver them
//	test    post a test message to the default room or to ROOM
//	config  print the effective configuration
//
// Install as a post-receive hook with e.g.:
//
//	#!/bin/sh
//	exec jabber hook --repo . --name myrepo.git --actor "$GL_USER"
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"jabber-relay/domain"
	"jabber-relay/infrastructure/git"
	"jabber-relay/internal"
	"jabber-relay/runtime"
	"jabber-relay/xmpp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.Red.Println(err.Error())
		os.Exit(1)
	}
}

// run keeps all exits on one path so deferred cleanup (dispatcher drain,
// session disconnect) always executes.
func run(args []string) error {
	_ = godotenv.Load()

	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := internal.NewLogger(cfg.LogLevel)

	if len(args) < 1 {
		return fmt.Errorf("usage: jabber <hook|test|config> [flags]")
	}

	switch args[0] {
	case "hook":
		return runHook(cfg, log, args[1:])
	case "test":
		return runTest(cfg, log, args[1:])
	case "config":
		return runConfig(cfg)
	default:
		return fmt.Errorf("unknown command %q (want hook, test or config)", args[0])
	}
}

func runHook(cfg internal.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("hook", flag.ContinueOnError)
	repoPath := fs.String("repo", ".", "path to the git repository")
	repoName := fs.String("name", "", "repository name as served (defaults to the directory name)")
	actor := fs.String("actor", "", "display name of the pushing user (defaults to $USER)")
	personal := fs.Bool("personal", false, "mark the repository as personal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	walker := git.NewCLIWalker(*repoPath, log)
	commands, err := readCommands(ctx, os.Stdin, walker)
	if err != nil {
		return fmt.Errorf("reading ref updates: %w", err)
	}
	if len(commands) == 0 {
		return nil
	}

	name := *repoName
	if name == "" {
		abs, err := filepath.Abs(*repoPath)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}
	who := *actor
	if who == "" {
		who = os.Getenv("USER")
	}

	orch := runtime.NewOrchestrator(cfg, xmpp.Dialer{}, log)
	orch.Start()
	// Stop drains the async deliveries before this short-lived process exits.
	defer orch.Stop()

	push := domain.Push{
		Actor:      who,
		Repository: domain.Repository{Name: name, Personal: *personal},
		Commands:   commands,
	}
	orch.PostReceive(ctx, push, walker)
	return nil
}

// readCommands parses the git post-receive stdin contract: one
// "old-id new-id refname" line per updated ref. The change kind falls out
// of the ids: an all-zero old id is a create, an all-zero new id a
// delete, and everything else an update classified by ancestry.
func readCommands(ctx context.Context, r io.Reader, walker *git.CLIWalker) ([]domain.RefUpdate, error) {
	scanner := bufio.NewScanner(r)
	var commands []domain.RefUpdate
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		cmd := domain.RefUpdate{OldID: fields[0], NewID: fields[1], RefName: fields[2]}
		switch {
		case cmd.OldID == domain.ZeroID:
			cmd.Change = domain.ChangeCreate
		case cmd.NewID == domain.ZeroID:
			cmd.Change = domain.ChangeDelete
		default:
			fastForward, err := walker.IsAncestor(ctx, cmd.OldID, cmd.NewID)
			if err != nil {
				return nil, err
			}
			if fastForward {
				cmd.Change = domain.ChangeUpdate
			} else {
				cmd.Change = domain.ChangeUpdateNonFastForward
			}
		}
		commands = append(commands, cmd)
	}
	return commands, scanner.Err()
}

func runTest(cfg internal.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	room := fs.Arg(0)

	orch := runtime.NewOrchestrator(cfg, xmpp.Dialer{}, log)
	orch.Start()
	defer orch.Stop()

	if err := orch.SendTest(room); err != nil {
		return err
	}
	color.Green.Println("Test message delivered")
	return nil
}
