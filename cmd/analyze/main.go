// Command analyze runs the highlight analysis pipeline on a local book
// export and writes the full report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"marginalia/internal/setup"
	"marginalia/internal/util"
	"marginalia/pkg/ai"
	"marginalia/pkg/analyzer"
	"marginalia/pkg/common"
	"marginalia/pkg/graph"
	"marginalia/pkg/logger"
	"marginalia/pkg/logger/console"
)

func main() {
	input := flag.String("input", "", "path to the book export JSON (required)")
	output := flag.String("output", "", "path for the report JSON (default: stdout)")
	local := flag.Bool("local", false, "skip the model and use heuristic analysis only")
	flag.Parse()

	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	}))

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		logger.Fatal("Failed to read book export", "path", *input, "err", err)
	}
	book := new(common.Book)
	if err := json.Unmarshal(data, book); err != nil {
		logger.Fatal("Failed to decode book export", "path", *input, "err", err)
	}

	var generator ai.TextGenerator
	if !*local {
		generator = setup.BuildGenerator(ctx)
	}

	a := analyzer.NewAnalyzer(analyzer.NewAnalyzerParams{
		Generator:        generator,
		BatchSize:        util.GetEnvInt("AI_BATCH_SIZE", analyzer.DefaultBatchSize),
		MinConceptLength: util.GetEnvInt("AI_MIN_CONCEPT_LENGTH", analyzer.DefaultMinConceptLength),
	})

	logger.Info("Analyzing book", "book", book.Metadata.Title, "highlights", len(book.Highlights))

	results, err := a.AnalyzeBook(ctx, book)
	if err != nil {
		logger.Fatal("Analysis failed", "book", book.Metadata.Title, "err", err)
	}

	report := graph.BuildReport(book, results)

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", "err", err)
	}

	if *output == "" {
		os.Stdout.Write(append(encoded, '\n'))
	} else {
		if err := os.WriteFile(*output, encoded, 0o644); err != nil {
			logger.Fatal("Failed to write report", "path", *output, "err", err)
		}
		logger.Info("Report written", "path", *output)
	}

	if service, ok := generator.(*ai.Service); ok {
		stats := service.Tracker().Stats()
		logger.Info("Cost stats",
			"total_cost", stats.TotalCost,
			"requests", stats.TotalRequests,
			"remaining_budget", stats.RemainingDailyBudget,
		)
	}
}
