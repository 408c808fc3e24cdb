// Command play is a terminal front end for the minigames API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hongminglow/minigames-be/internal/client"
)

func main() {
	_ = godotenv.Load()

	defaultServer := strings.TrimSpace(os.Getenv("MINIGAMES_SERVER"))
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	defaultTokenPath, err := client.DefaultTokenPath()
	if err != nil {
		defaultTokenPath = ".minigames-token"
	}

	serverURL := flag.String("server", defaultServer, "minigames API base URL")
	tokenPath := flag.String("token-file", defaultTokenPath, "where the session token is kept")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(client.New(*serverURL, nil), client.NewFileTokenStore(*tokenPath))
	if err := session.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "could not reach %s: %v (continuing as guest)\n", *serverURL, err)
	}

	app := NewApp(session, bufio.NewReader(os.Stdin), os.Stdout)
	app.Run(ctx)
}
