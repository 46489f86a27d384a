package queue

import (
	"github.com/go-playground/validator"
)

// AnalyzeJobMsg is the message published to analyze_queue. BookKey is the
// S3 object key of the book export to analyze.
type AnalyzeJobMsg struct {
	Message       string `json:"message"`
	BookKey       string `json:"book_key" validate:"required"`
	CorrelationID string `json:"correlation_id"`
}

var validate = validator.New()

func (m *AnalyzeJobMsg) Validate() error {
	return validate.Struct(m)
}
