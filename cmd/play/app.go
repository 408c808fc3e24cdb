package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/hongminglow/minigames-be/internal/client"
	"github.com/hongminglow/minigames-be/internal/games"
)

// App is the interactive menu loop.
type App struct {
	session     *client.Session
	in          *bufio.Reader
	out         io.Writer
	rng         *rand.Rand
	newReaction func(onGo func()) *games.ReactionTimer
}

// NewApp wires an App to a session and terminal streams.
func NewApp(session *client.Session, in *bufio.Reader, out io.Writer) *App {
	return &App{
		session: session,
		in:      in,
		out:     out,
		newReaction: func(onGo func()) *games.ReactionTimer {
			return games.NewReactionTimer(games.WithOnGo(onGo))
		},
	}
}

// Run shows the menu until the player quits, input ends or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	for ctx.Err() == nil {
		a.printMenu()
		choice, err := prompt(a.in, a.out, "> ")
		if err != nil {
			return
		}

		switch strings.ToLower(choice) {
		case "1":
			err = a.playNumberGuess(ctx)
		case "2":
			err = a.playRockPaperScissors(ctx)
		case "3":
			err = a.playTicTacToe(ctx)
		case "4":
			err = a.playReaction(ctx)
		case "h":
			err = a.showHistory(ctx)
		case "s":
			err = a.showStats(ctx)
		case "l":
			err = a.login(ctx)
		case "u":
			err = a.signup(ctx)
		case "o":
			err = a.session.Logout()
			if err == nil {
				fmt.Fprintln(a.out, "Signed out.")
			}
		case "q", "quit", "exit":
			fmt.Fprintln(a.out, "Bye!")
			return
		case "":
			continue
		default:
			fmt.Fprintf(a.out, "Unknown option %q\n", choice)
		}

		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
}

func (a *App) printMenu() {
	status := "guest"
	if id, ok := a.session.Identity(); ok {
		status = id.Name + " <" + id.Email + ">"
	}
	fmt.Fprintf(a.out, "\n[%s]\n", status)
	fmt.Fprintln(a.out, "  1) Number guessing   2) Rock paper scissors")
	fmt.Fprintln(a.out, "  3) Tic-tac-toe       4) Reaction time")
	fmt.Fprintln(a.out, "  h) History  s) Stats  l) Log in  u) Sign up  o) Log out  q) Quit")
}

func (a *App) login(ctx context.Context) error {
	email, err := prompt(a.in, a.out, "Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return err
	}
	id, err := a.session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s.\n", id.Name)
	return nil
}

func (a *App) signup(ctx context.Context) error {
	name, err := prompt(a.in, a.out, "Name: ")
	if err != nil {
		return err
	}
	email, err := prompt(a.in, a.out, "Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return err
	}
	if _, err := a.session.Signup(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created. Log in with l.")
	return nil
}

// record forwards a finished game and tells the player what happened to it.
func (a *App) record(ctx context.Context, o games.Outcome) {
	saved, err := a.session.Record(ctx, o)
	switch {
	case err != nil:
		fmt.Fprintf(a.out, "Could not save result: %v\n", err)
	case saved:
		fmt.Fprintln(a.out, "Result saved to your history.")
	default:
		fmt.Fprintln(a.out, "Playing as guest; result not saved.")
	}
}

func (a *App) playNumberGuess(ctx context.Context) error {
	g := games.NewNumberGuess(a.rng)
	fmt.Fprintf(a.out, "I'm thinking of a number between %d and %d.\n", games.MinSecret, games.MaxSecret)
	for {
		line, err := prompt(a.in, a.out, "Guess: ")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(a.out, "Enter a whole number.")
			continue
		}
		hint, outcome, err := g.Guess(n)
		if err != nil {
			fmt.Fprintln(a.out, err)
			continue
		}
		if outcome == nil {
			fmt.Fprintf(a.out, "%d is %s.\n", n, hint)
			continue
		}
		fmt.Fprintf(a.out, "Correct! You got it in %d attempts.\n", g.Attempts())
		a.record(ctx, *outcome)
		return nil
	}
}

func (a *App) playRockPaperScissors(ctx context.Context) error {
	g := games.NewRockPaperScissors()
	fmt.Fprintln(a.out, "Rock, paper, scissors. Enter r, p or s; blank line to stop.")
	for {
		line, err := prompt(a.in, a.out, "Your choice: ")
		if err != nil {
			return err
		}
		if line == "" {
			fmt.Fprintf(a.out, "Final tally: you %d, computer %d, ties %d.\n", g.PlayerWins, g.ComputerWins, g.Ties)
			return nil
		}
		choice, err := games.ParseChoice(line)
		if err != nil {
			fmt.Fprintln(a.out, err)
			continue
		}
		round, outcome, err := g.Play(choice, games.RandomChoice(a.rng))
		if err != nil {
			return err
		}
		switch round.Winner {
		case games.SidePlayer:
			fmt.Fprintf(a.out, "%s beats %s. You win!\n", round.Player, round.Computer)
		case games.SideComputer:
			fmt.Fprintf(a.out, "%s beats %s. Computer wins.\n", round.Computer, round.Player)
		default:
			fmt.Fprintf(a.out, "Both chose %s. Tie.\n", round.Player)
		}
		a.record(ctx, outcome)
	}
}

func (a *App) playTicTacToe(ctx context.Context) error {
	g := games.NewTicTacToe()
	fmt.Fprintln(a.out, "Tic-tac-toe for two. Cells are numbered 1-9, left to right.")
	for {
		a.printBoard(g.Board())
		line, err := prompt(a.in, a.out, fmt.Sprintf("%s to move: ", g.Turn()))
		if err != nil {
			return err
		}
		cell, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(a.out, "Enter a cell number from 1 to 9.")
			continue
		}
		state, outcome, err := g.Move(cell - 1)
		if err != nil {
			fmt.Fprintln(a.out, err)
			continue
		}
		if outcome == nil {
			continue
		}

		a.printBoard(g.Board())
		if state == games.Tie {
			fmt.Fprintln(a.out, "It's a tie.")
		} else {
			winner, _ := g.State()
			fmt.Fprintf(a.out, "%s wins!\n", winner)
		}
		a.record(ctx, *outcome)
		return nil
	}
}

func (a *App) printBoard(b games.Board) {
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if b[i] == games.Empty {
				cells[col] = strconv.Itoa(i + 1)
			} else {
				cells[col] = b[i].String()
			}
		}
		fmt.Fprintf(a.out, " %s\n", strings.Join(cells, " | "))
	}
}

func (a *App) playReaction(ctx context.Context) error {
	timer := a.newReaction(func() {
		fmt.Fprintln(a.out, "GO! Press Enter!")
	})
	defer timer.Reset()

	if _, err := prompt(a.in, a.out, "Press Enter to start, then press Enter again when you see GO.\n"); err != nil {
		return err
	}
	timer.Arm()
	fmt.Fprintln(a.out, "Wait for it...")

	if _, err := prompt(a.in, a.out, ""); err != nil {
		return err
	}
	state, outcome := timer.Click()
	if state == games.TooEarly {
		fmt.Fprintln(a.out, "Too early! Try again.")
		return nil
	}
	if outcome == nil {
		return nil
	}
	fmt.Fprintf(a.out, "%d ms\n", outcome.Score)
	a.record(ctx, *outcome)
	return nil
}

func (a *App) showHistory(ctx context.Context) error {
	history, err := a.session.History(ctx)
	if errors.Is(err, client.ErrGuest) {
		fmt.Fprintln(a.out, "Log in to see your history.")
		return nil
	}
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(a.out, "No games played yet.")
		return nil
	}
	for _, o := range history {
		fmt.Fprintf(a.out, "%s  %-20s %-9s %d\n", o.Timestamp.Local().Format("2006-01-02 15:04"), o.GameType, o.Result, o.Score)
	}
	return nil
}

func (a *App) showStats(ctx context.Context) error {
	stats, err := a.session.Stats(ctx)
	if errors.Is(err, client.ErrGuest) {
		fmt.Fprintln(a.out, "Log in to see your stats.")
		return nil
	}
	if err != nil {
		return err
	}
	for _, s := range stats {
		best := "-"
		if s.BestScore != nil {
			best = strconv.Itoa(*s.BestScore)
		}
		fmt.Fprintf(a.out, "%-20s plays %-3d W %-3d L %-3d T %-3d best %s\n", s.GameType, s.Plays, s.Wins, s.Losses, s.Ties, best)
	}
	return nil
}
