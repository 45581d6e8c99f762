package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/cli"
	"github.com/bengaltrails/bengaltrails-go/internal/client"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	defaultAPI := os.Getenv("TRAILS_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:5000"
	}

	apiURL := flag.String("api", defaultAPI, "server base URL")
	hiddenDelay := flag.Duration("hidden-delay", client.DefaultAutoLogoutPolicy.HiddenDelay, "sign out after the app is hidden this long, 0 disables")
	unloadLogout := flag.Bool("unload-logout", client.DefaultAutoLogoutPolicy.LogoutOnUnload, "sign out on quit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	api, err := client.NewAPI(*apiURL, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	auth := client.NewAuthContext(api)
	watcher := client.NewAutoLogout(auth, client.AutoLogoutPolicy{
		HiddenDelay:    *hiddenDelay,
		LogoutOnUnload: *unloadLogout,
		RequestTimeout: 5 * time.Second,
	})

	// Reading stdin cannot be interrupted, so a signal runs the unload
	// logout here and exits.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stdout)
		watcher.Unload()
		watcher.Stop()
		os.Exit(130)
	}()

	if err := cli.NewShell(auth, watcher, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
