package ask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AnswerClient performs one question/answer exchange with the answering service.
// Implementations do not retry.
type AnswerClient interface {
	Submit(ctx context.Context, req Request) (*Response, error)
}

const askPath = "/ask"

type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// Ensure HTTPClient implements AnswerClient
var _ AnswerClient = &HTTPClient{}

// NewHTTPClient creates a client for the service at baseURL. Deadlines come
// from the caller's context, so the http.Client carries no timeout of its own.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
	}
}

func (c *HTTPClient) Submit(ctx context.Context, askReq Request) (*Response, error) {
	ctx, span := otel.Tracer("ai-oneshot-console/ask").Start(ctx, "ask.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("ask.approach", string(askReq.Approach)),
		attribute.String("ask.deployment", string(askReq.Deployment)),
		attribute.String("ask.index", string(askReq.Index)),
	)

	resp, err := c.submit(ctx, askReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) submit(ctx context.Context, askReq Request) (*Response, error) {
	payload, err := json.Marshal(askReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+askPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if httpResp.StatusCode > 299 || parsed.Error != "" {
		msg := parsed.Error
		if msg == "" {
			msg = UnknownErrorMessage
		}
		return nil, &ServiceError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	return &parsed, nil
}

// CitationFilePath maps a citation identifier to its content resource path.
// The identifier is used verbatim; the content host is responsible for it.
func CitationFilePath(citation string) string {
	return "/content/" + citation
}
