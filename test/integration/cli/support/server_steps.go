package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/server"
	"github.com/cucumber/godog"
)

// RegisterServerSteps registers the HTTP server steps.
func (tc *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the recognition server is running$`, tc.theRecognitionServerIsRunning)
	sc.Step(`^the recognition server is running with a limit of (\d+) requests per minute$`,
		tc.theRecognitionServerIsRunningWithLimit)
	sc.Step(`^I send a GET request to "([^"]*)"$`, tc.iSendAGETRequestTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, tc.iUploadTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with "([^"]*)"$`, tc.iUploadToWith)
	sc.Step(`^I request the "([^"]*)" model$`, tc.iRequestTheModel)
	sc.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, tc.theResponseFieldShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, tc.theResponseHeaderShouldBe)
}

// startServer serves a lazily loaded store over httptest.
func (tc *TestContext) startServer(rl server.RateLimitConfig) error {
	store := models.NewStore(models.StoreConfig{ModelsDir: tc.ModelsDir, DefaultKind: models.KindSVM})
	store.Select(models.KindSVM, "")

	pl, err := pipeline.New(pipeline.DefaultConfig(), store)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(server.Config{
		ConfidencePrecision: 2,
		Version:             "test",
		RateLimit:           rl,
	}, pl, store)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	tc.Server = httptest.NewServer(srv.Handler())
	return nil
}

func (tc *TestContext) theRecognitionServerIsRunning() error {
	return tc.startServer(server.RateLimitConfig{})
}

func (tc *TestContext) theRecognitionServerIsRunningWithLimit(perMinute int) error {
	return tc.startServer(server.RateLimitConfig{Enabled: true, RequestsPerMinute: perMinute})
}

func (tc *TestContext) record(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.LastHTTPStatusCode = resp.StatusCode
	tc.LastHTTPResponse = string(body)
	tc.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		tc.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (tc *TestContext) requireServer() error {
	if tc.Server == nil {
		return fmt.Errorf("recognition server is not running")
	}
	return nil
}

func (tc *TestContext) iSendAGETRequestTo(path string) error {
	if err := tc.requireServer(); err != nil {
		return err
	}
	resp, err := tc.Server.Client().Get(tc.Server.URL + path)
	if err != nil {
		return err
	}
	return tc.record(resp)
}

func (tc *TestContext) iUploadTo(name, path string) error {
	return tc.iUploadToWith(name, path, "")
}

// iUploadToWith posts name as the "image" form file; fields is a query
// string of extra form values such as "expected_digits=3&format=text".
func (tc *TestContext) iUploadToWith(name, path, fields string) error {
	if err := tc.requireServer(); err != nil {
		return err
	}
	data, err := os.ReadFile(tc.Path(name))
	if err != nil {
		return err
	}
	values, err := url.ParseQuery(fields)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k := range values {
		if err := mw.WriteField(k, values.Get(k)); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := tc.Server.Client().Post(tc.Server.URL+path, mw.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	return tc.record(resp)
}

func (tc *TestContext) iRequestTheModel(kind string) error {
	if err := tc.requireServer(); err != nil {
		return err
	}
	resp, err := tc.Server.Client().PostForm(tc.Server.URL+"/model/load", url.Values{"kind": {kind}})
	if err != nil {
		return err
	}
	return tc.record(resp)
}

func (tc *TestContext) theResponseStatusShouldBe(code int) error {
	if tc.LastHTTPStatusCode != code {
		return fmt.Errorf("status %d, want %d: %s", tc.LastHTTPStatusCode, code, tc.LastHTTPResponse)
	}
	return nil
}

func (tc *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(tc.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q: %s", text, tc.LastHTTPResponse)
	}
	return nil
}

func (tc *TestContext) theResponseFieldShouldBe(field, expected string) error {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(tc.LastHTTPResponse), &decoded); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	got, ok := decoded[field]
	if !ok {
		return fmt.Errorf("response has no field %q: %s", field, tc.LastHTTPResponse)
	}
	if fmt.Sprint(got) != expected {
		return fmt.Errorf("field %q is %v, want %q", field, got, expected)
	}
	return nil
}

func (tc *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := tc.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != expected {
		return fmt.Errorf("header %s is %q, want %q", name, got, expected)
	}
	return nil
}
