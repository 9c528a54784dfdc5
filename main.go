// loom TUI - a terminal interface for threaded LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/loom-tui/internal/config"
	"github.com/jeranaias/loom-tui/internal/gateway"
	"github.com/jeranaias/loom-tui/internal/session"
	"github.com/jeranaias/loom-tui/internal/storage"
	"github.com/jeranaias/loom-tui/internal/thread"
	"github.com/jeranaias/loom-tui/internal/ui/chat"
	"github.com/jeranaias/loom-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("loom %s (%s, %s)\n", Version, GitCommit, BuildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Route stdlib log away from the terminal the TUI owns.
	if f, err := tea.LogToFile(logPath(), "loom"); err == nil {
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var store *storage.Store
	if cfg.Storage.Path != "" {
		store, err = storage.NewStoreWithPath(cfg.Storage.Path)
	} else {
		store, err = storage.NewStore()
	}
	if err != nil {
		return err
	}

	repo := thread.NewRepository(store)
	client := gateway.NewClient(cfg.Endpoint.URL, cfg.Endpoint.APIKey)
	ctrl := session.NewController(repo, client, cfg.DefaultModel)

	m := chat.New(styles.NewTheme(), cfg, repo, ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Pick up document writes from other loom processes.
	if cfg.Storage.WatchDocument {
		watcher, werr := storage.NewWatcher(store, 200*time.Millisecond, func() {
			p.Send(chat.DocumentChanged())
		})
		if werr == nil {
			if werr := watcher.Watch(); werr != nil {
				log.Printf("WATCHER_START_FAILED | error=%v", werr)
			}
			defer watcher.Close()
		} else {
			log.Printf("WATCHER_INIT_FAILED | error=%v", werr)
		}
	}

	_, err = p.Run()
	return err
}

// logPath returns the debug log location, creating the directory.
func logPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "loom.log"
	}
	dir := home + "/.loom"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "loom.log"
	}
	return dir + "/loom.log"
}

func printUsage() {
	fmt.Println(`loom - terminal chat client

Usage:
  loom            Start the interface
  loom version    Print version information
  loom help       Show this help

Configuration:
  ~/.loom/config.toml (or config.json)
  LOOM_ENDPOINT_URL, LOOM_API_KEY, LOOM_MODEL override the file.

Data:
  Threads are stored in ~/.loom/threads.json.`)
}
