package spira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

const restServicePath = "/Services/v6_0/RestService.svc/"

// Client talks to the SpiraTest REST API.
type Client interface {
	RecordTestRun(ctx context.Context, projectID int, testRun TestRun) (int, error)
	UploadDocument(ctx context.Context, projectID int, document Document) (int, error)
}

// Connection ...
type Connection struct {
	Protocol    string
	Host        string
	Port        int
	VirtualDir  string
	Login       string
	APIKey      string
	RetryMax    int
	RetryWait   time.Duration
	HTTPTimeout time.Duration
}

// BaseURL returns the root of the REST service, ending with a slash.
func (c Connection) BaseURL() string {
	host := c.Host
	if c.Port > 0 {
		host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}

	vdir := strings.Trim(c.VirtualDir, "/")
	if vdir != "" {
		vdir = "/" + vdir
	}

	protocol := c.Protocol
	if protocol == "" {
		protocol = "https"
	}

	return fmt.Sprintf("%s://%s%s%s", protocol, host, vdir, restServicePath)
}

type client struct {
	connection Connection
	httpClient *retryablehttp.Client
	logger     log.Logger
}

// NewClient ...
func NewClient(connection Connection, logger log.Logger) Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = connection.RetryMax
	if connection.RetryWait > 0 {
		httpClient.RetryWaitMin = connection.RetryWait
		httpClient.RetryWaitMax = 8 * connection.RetryWait
	}
	if connection.HTTPTimeout > 0 {
		httpClient.HTTPClient.Timeout = connection.HTTPTimeout
	}
	httpClient.Logger = leveledLogger{logger: logger, secret: url.QueryEscape(connection.APIKey)}
	// keep the last response so the status code ends up in the returned error
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &client{
		connection: connection,
		httpClient: httpClient,
		logger:     logger,
	}
}

// RecordTestRun creates a test run record and returns its id.
func (c *client) RecordTestRun(ctx context.Context, projectID int, testRun TestRun) (int, error) {
	var resp testRunResponse
	if err := c.post(ctx, fmt.Sprintf("projects/%d/test-runs/record", projectID), testRun, &resp); err != nil {
		return 0, fmt.Errorf("failed to record test run for test case (TC:%d): %w", testRun.TestCaseID, err)
	}
	if resp.TestRunID <= 0 {
		return 0, fmt.Errorf("test run recorded for test case (TC:%d) but no test run id returned", testRun.TestCaseID)
	}

	return resp.TestRunID, nil
}

// UploadDocument attaches a base64 encoded file and returns the attachment id.
func (c *client) UploadDocument(ctx context.Context, projectID int, document Document) (int, error) {
	var resp documentResponse
	if err := c.post(ctx, fmt.Sprintf("projects/%d/documents/file", projectID), document, &resp); err != nil {
		return 0, fmt.Errorf("failed to upload document (%s): %w", document.FilenameOrURL, err)
	}

	return resp.AttachmentID, nil
}

func (c *client) post(ctx context.Context, resource string, body interface{}, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.resourceURL(resource), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf("POST %s", resource)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the request url carries the api key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("error performing request (POST %s): %w", resource, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %s", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("got unexpected http %d status code: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}

	return nil
}

func (c *client) resourceURL(resource string) string {
	query := url.Values{}
	query.Set("username", c.connection.Login)
	query.Set("api-key", c.connection.APIKey)

	return c.connection.BaseURL() + resource + "?" + query.Encode()
}

// ParseID converts a SpiraTest id given as text, only positive integers are valid.
func ParseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
