// Command advisor is an interactive motorcycle recommendation assistant.
//
// It runs a read-eval loop on stdin by default; with -batch it reads a JSON
// array of conversation messages, runs a single turn and prints the reply.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	ai "github.com/danielgaio/moto-advisor/internal/adapter/ai"
	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/adapter/vector"
	qdrantcli "github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/convo"
	"github.com/danielgaio/moto-advisor/internal/usecase"
	"github.com/danielgaio/moto-advisor/pkg/textx"
)

func main() {
	batchPath := flag.String("batch", "", "path to a JSON array of messages (\"-\" for stdin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	// Keep stdout clean for the conversation.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)
	observability.InitMetrics()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	model, embedder, err := ai.NewFromConfig(cfg, rdb, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "model client:", err)
		os.Exit(1)
	}
	qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	retriever := vector.NewRetriever(qcli, embedder, cfg.QdrantCollection, cfg.RetrieveTopK, logger)
	turns := usecase.NewTurnService(model, retriever, logger)

	ctx := context.Background()
	if *batchPath != "" {
		if err := runBatch(ctx, turns, *batchPath); err != nil {
			fmt.Fprintln(os.Stderr, "batch:", err)
			os.Exit(1)
		}
		return
	}
	runInteractive(ctx, turns)
}

func runBatch(ctx context.Context, turns *usecase.TurnService, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var messages []string
	if err := json.NewDecoder(r).Decode(&messages); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}
	result, err := turns.ProcessTurnWithRecovery(ctx, messages)
	if err != nil {
		return err
	}
	fmt.Println(result.Reply)
	return nil
}

func runInteractive(ctx context.Context, turns *usecase.TurnService) {
	fmt.Println("Tell me what you ride for and your budget, and I'll suggest motorcycles.")
	fmt.Println("Type 'quit' to exit.")

	var history []string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := textx.SanitizeText(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			fmt.Println("Ride safe!")
			return
		}
		history = append(history, line)

		if convo.IsVagueInput(line) {
			question, ok := turns.GenerateClarifyingQuestion(ctx, history)
			if !ok {
				question = "What will you mostly use the bike for, and what is your budget?"
			}
			fmt.Println(question)
			continue
		}

		result, err := turns.ProcessTurnWithRecovery(ctx, history)
		if err != nil {
			fmt.Println("Something went wrong talking to the model. Try again in a moment.")
			slog.Error("turn failed", slog.Any("error", err))
			continue
		}
		fmt.Println(result.Reply)
	}
}
