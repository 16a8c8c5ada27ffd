package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/user/debatecoach/internal/types"
)

var chatMode string

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", "debate", "session mode (debate or pitch)")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Coach an argument interactively in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var (
	replyColor   = color.New(color.FgWhite, color.Bold)
	proColor     = color.New(color.FgGreen)
	conColor     = color.New(color.FgRed)
	sourcesColor = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// chatHints maps REPL slash commands to intent hints.
var chatHints = map[string]types.Intent{
	"/evaluate":   types.IntentEvaluate,
	"/objections": types.IntentObjections,
	"/research":   types.IntentResearch,
}

func runChat(cmd *cobra.Command, args []string) error {
	mode, err := types.ParseMode(chatMode)
	if err != nil {
		return err
	}
	cfg := loadConfig()
	logCloser := setupLogging(cfg)
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.start(ctx)
	defer a.close()

	id, err := a.gateway.CreateSession(ctx, mode)
	if err != nil {
		return err
	}
	dimColor.Fprintf(os.Stdout, "%s session %s. Commands: /evaluate /objections /research /columns /quit\n", mode, id)

	return chatLoop(ctx, os.Stdin, os.Stdout, func(text string, hints types.Hints) (types.TurnResult, error) {
		return a.gateway.Do(ctx, id, "", text, hints)
	}, func() (types.Columns, error) {
		return a.store.Export(ctx, id)
	})
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer,
	turn func(string, types.Hints) (types.TurnResult, error),
	columns func() (types.Columns, error),
) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var hints types.Hints
		word, rest, _ := strings.Cut(line, " ")
		switch {
		case word == "/quit" || word == "/exit":
			return nil
		case word == "/columns":
			cols, err := columns()
			if err != nil {
				return err
			}
			printColumns(out, cols)
			continue
		case chatHints[word] != "":
			hints.Intent = chatHints[word]
			line = strings.TrimSpace(rest)
		}

		res, err := turn(line, hints)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			conColor.Fprintf(out, "%s%v\n", types.ReplyErrorPrefix, err)
			continue
		}
		replyColor.Fprintln(out, res.Reply)
		printEvents(out, res.Events)
	}
}

func printEvents(out io.Writer, events []types.Event) {
	for _, e := range events {
		c := eventColor(e.Column)
		c.Fprintf(out, "  + %s: ", e.Column)
		fmt.Fprintln(out, payloadText(e.Payload))
	}
}

func printColumns(out io.Writer, cols types.Columns) {
	proColor.Fprintf(out, "PRO (%d)\n", len(cols.Pro))
	for _, e := range cols.Pro {
		fmt.Fprintf(out, "  %s\n", payloadText(e.Payload))
	}
	conColor.Fprintf(out, "CON (%d)\n", len(cols.Con))
	for _, e := range cols.Con {
		fmt.Fprintf(out, "  %s\n", payloadText(e.Payload))
	}
	sourcesColor.Fprintf(out, "SOURCES (%d)\n", len(cols.Sources))
	for _, s := range cols.Sources {
		fmt.Fprintf(out, "  [%s] %s %s\n", s.Reliability, s.Title, s.URL)
	}
}

func eventColor(col types.Column) *color.Color {
	switch col {
	case types.ColumnPro:
		return proColor
	case types.ColumnCon:
		return conColor
	default:
		return sourcesColor
	}
}

func payloadText(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case map[string]any:
		if added, ok := v["added"].([]types.Source); ok {
			titles := make([]string, 0, len(added))
			for _, s := range added {
				titles = append(titles, s.Title)
			}
			return fmt.Sprintf("%d new: %s", len(added), strings.Join(titles, "; "))
		}
	}
	return fmt.Sprint(p)
}
