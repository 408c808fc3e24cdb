package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/minigames-be/internal/client"
	"github.com/hongminglow/minigames-be/internal/config"
	"github.com/hongminglow/minigames-be/internal/games"
	"github.com/hongminglow/minigames-be/internal/metrics"
	"github.com/hongminglow/minigames-be/internal/middleware"
	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/server"
	"github.com/hongminglow/minigames-be/internal/storage/memory"
)

func newSession(t *testing.T) *client.Session {
	t.Helper()
	cfg := config.Config{
		JWTSecret:         "play-test-secret",
		JWTIssuer:         "minigames-test",
		JWTTTL:            time.Hour,
		CORSOrigins:       []string{"*"},
		AuthRatePerMinute: 1000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AuthRatePerMinute), logger)
	t.Cleanup(limiter.Stop)

	ts := httptest.NewServer(server.NewRouter(cfg, memory.NewStore(), logger, metrics.NewCollector(registry), registry, limiter))
	t.Cleanup(ts.Close)

	return client.NewSession(client.New(ts.URL, ts.Client()), &client.MemoryTokenStore{})
}

func stubPassword(t *testing.T, password string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPassword = old })
}

func newTestApp(session *client.Session, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	app := NewApp(session, bufio.NewReader(strings.NewReader(input)), &out)
	app.rng = rand.New(rand.NewPCG(7, 11))
	return app, &out
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	got, err := prompt(bufio.NewReader(strings.NewReader("  hello \n")), &out, "Name: ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "Name: ", out.String())

	got, err = prompt(bufio.NewReader(strings.NewReader("last")), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = prompt(bufio.NewReader(strings.NewReader("")), &out, "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }

	var out bytes.Buffer
	_, err := promptPassword(&out)
	assert.Error(t, err)
}

func TestRun_LoginAndTicTacToe(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	_, err := session.Signup(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	stubPassword(t, "hunter22")

	app, out := newTestApp(session, "l\nada@example.com\n3\n1\n4\n4\n2\n5\n3\nq\n")
	app.Run(ctx)

	assert.Contains(t, out.String(), "Welcome back, Ada.")
	assert.Contains(t, out.String(), "cell 3 is taken")
	assert.Contains(t, out.String(), "X wins!")
	assert.Contains(t, out.String(), "Result saved to your history.")
	assert.Contains(t, out.String(), "Bye!")

	history, err := session.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.GameTicTacToe, history[0].GameType)
	assert.Equal(t, models.ResultWin, history[0].Result)
	assert.Equal(t, 1, history[0].Score)
}

func TestRun_GuestDoesNotRecord(t *testing.T) {
	session := newSession(t)
	app, out := newTestApp(session, "3\n1\n2\n3\n4\n5\n6\n8\n7\n9\nh\nq\n")
	app.Run(context.Background())

	assert.Contains(t, out.String(), "[guest]")
	assert.Contains(t, out.String(), "Playing as guest; result not saved.")
	assert.Contains(t, out.String(), "Log in to see your history.")
}

func TestRun_RockPaperScissors(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	_, err := session.Signup(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	_, err = session.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	app, out := newTestApp(session, "2\nr\nx\np\n\ns\nq\n")
	app.Run(ctx)

	assert.Contains(t, out.String(), `unknown choice "x"`)
	assert.Contains(t, out.String(), "Final tally:")

	history, err := session.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, o := range history {
		assert.Equal(t, models.GameRockPaperScissors, o.GameType)
	}
	assert.Contains(t, out.String(), "rock-paper-scissors  plays 2")
}

func TestPlayNumberGuess(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	_, err := session.Signup(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	_, err = session.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	var input strings.Builder
	input.WriteString("abc\n")
	for n := games.MinSecret; n <= games.MaxSecret; n++ {
		fmt.Fprintf(&input, "%d\n", n)
	}
	app, out := newTestApp(session, input.String())
	require.NoError(t, app.playNumberGuess(ctx))

	assert.Contains(t, out.String(), "Enter a whole number.")
	assert.Contains(t, out.String(), "Correct!")

	history, err := session.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.GameNumberGuessing, history[0].GameType)
	assert.Equal(t, models.ResultWin, history[0].Result)
	assert.GreaterOrEqual(t, history[0].Score, 1)
}

type idleScheduler struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleScheduler) AfterFunc(time.Duration, func()) games.Timer { return idleTimer{} }

func TestRun_ReactionTooEarly(t *testing.T) {
	session := newSession(t)
	app, out := newTestApp(session, "4\n\n\nq\n")
	app.newReaction = func(onGo func()) *games.ReactionTimer {
		return games.NewReactionTimer(games.WithScheduler(idleScheduler{}), games.WithOnGo(onGo))
	}
	app.Run(context.Background())

	assert.Contains(t, out.String(), "Wait for it...")
	assert.Contains(t, out.String(), "Too early! Try again.")
	assert.NotContains(t, out.String(), "GO!")
}

func TestRun_UnknownOptionAndEOF(t *testing.T) {
	app, out := newTestApp(newSession(t), "zzz\n")
	app.Run(context.Background())
	assert.Contains(t, out.String(), `Unknown option "zzz"`)
}
