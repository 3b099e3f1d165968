package analysis

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

type analyzeRequest struct {
	CaseID string `json:"case_id"`
	Action string `json:"action"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
	Error    string `json:"error"`
}

// HTTPClient calls the analysis collaborator over HTTP. Transport failures
// are reported as coded errors and never retried; the collaborator is a
// best-effort assistant, not a system of record.
type HTTPClient struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewHTTPClient builds a client against the collaborator base URL.
func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClient{http: client, logger: logger}
}

// Analyze posts the case and action to the collaborator and returns its
// free-text answer verbatim.
func (c *HTTPClient) Analyze(ctx context.Context, caseID id.CaseID, action string) (string, error) {
	parsed, err := ParseAction(action)
	if err != nil {
		return "", err
	}

	var result analyzeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{CaseID: caseID.String(), Action: string(parsed)}).
		SetResult(&result).
		SetError(&result).
		Post("/analyze")
	if err != nil {
		c.logger.ErrorContext(ctx, "analysis collaborator unreachable",
			"case_id", caseID.String(),
			"action", string(parsed),
			"error", err.Error(),
		)
		return "", dErrors.Wrap(err, dErrors.CodeTransport, "analysis collaborator unreachable")
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.WarnContext(ctx, "analysis collaborator refused the request",
			"case_id", caseID.String(),
			"action", string(parsed),
			"status", resp.StatusCode(),
		)
		if result.Error != "" {
			return "", dErrors.Newf(dErrors.CodeTransport, "analysis collaborator: %s", result.Error)
		}
		return "", dErrors.Newf(dErrors.CodeTransport, "analysis collaborator answered %d", resp.StatusCode())
	}
	return result.Analysis, nil
}
