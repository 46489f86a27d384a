package queue

import (
	"context"
	"encoding/json"
	"fmt"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"marginalia/internal/storage"
	"marginalia/internal/util"
	"marginalia/pkg/ai"
	"marginalia/pkg/analyzer"
	"marginalia/pkg/graph"
	"marginalia/pkg/logger"
)

// ProcessAnalyzeMessage handles one analyze_queue job: fetch the book
// export from S3, analyze every highlight, build the report and upload it.
// The generator may be nil, in which case the analysis runs fully local.
func ProcessAnalyzeMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	generator ai.TextGenerator,
	msg string,
) error {
	data := new(AnalyzeJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode analyze message: %w", err)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid analyze message: %w", err)
	}
	if data.CorrelationID == "" {
		data.CorrelationID = gonanoid.Must()
	}

	book, err := storage.GetBook(ctx, s3Client, data.BookKey)
	if err != nil {
		return err
	}
	logger.Info("[Queue] Analyzing book",
		"book", book.Metadata.Title,
		"highlights", len(book.Highlights),
		"correlation_id", data.CorrelationID,
	)

	a := analyzer.NewAnalyzer(analyzer.NewAnalyzerParams{
		Generator:        generator,
		BatchSize:        util.GetEnvInt("AI_BATCH_SIZE", analyzer.DefaultBatchSize),
		MinConceptLength: util.GetEnvInt("AI_MIN_CONCEPT_LENGTH", analyzer.DefaultMinConceptLength),
	})

	results, err := a.AnalyzeBook(ctx, book)
	if err != nil {
		return fmt.Errorf("failed to analyze book %s: %w", book.Metadata.Title, err)
	}

	report := graph.BuildReport(book, results)

	key, err := storage.PutReport(ctx, s3Client, report)
	if err != nil {
		return err
	}
	logger.Info("[Queue] Report stored", "book", book.Metadata.Title, "key", key)

	return nil
}
