package testutils

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	language "cloud.google.com/go/language/apiv1"
	"github.com/areknoster/hypert"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/genai"

	"github.com/datar-psa/summeval/gemini"
)

// ShouldUpdate returns true if tests should update cached HTTP responses
// Set UPDATE_TESTS=true environment variable to update cached responses
func ShouldUpdate() bool {
	return os.Getenv("UPDATE_TESTS") == "true"
}

// SkipWithoutRecordings skips integration tests in short mode, and when neither recorded
// responses under testdata/<subDir> nor record mode are available.
func SkipWithoutRecordings(t *testing.T, subDir string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if ShouldUpdate() {
		return
	}
	entries, err := os.ReadDir(filepath.Join("testdata", subDir))
	if err != nil || len(entries) == 0 {
		t.Skipf("Skipping integration test: no recordings in testdata/%s (run with UPDATE_TESTS=true)", subDir)
	}
}

// HypertClientConfig configures hypert client creation
type HypertClientConfig struct {
	TestDataDir string
	SubDir      string // Optional subdirectory for organizing test data
}

// NewHypertClient creates a new hypert client for caching HTTP requests
// This is useful for integration tests that make external API calls
func NewHypertClient(t *testing.T, config HypertClientConfig) *http.Client {
	return newClient(t, config, "")
}

// quotaProjectTransport wraps an http.RoundTripper to add quota project header
type quotaProjectTransport struct {
	base      http.RoundTripper
	projectID string
}

func (t *quotaProjectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Add quota project header
	req.Header.Set("X-Goog-User-Project", t.projectID)
	return t.base.RoundTrip(req)
}

// NewAuthenticatedHypertClient creates a new hypert client with OAuth2 authentication and quota project
// This is useful for Google Cloud APIs that require quota project to be set
func NewAuthenticatedHypertClient(t *testing.T, config HypertClientConfig, projectID string) *http.Client {
	return newClient(t, config, projectID)
}

func newClient(t *testing.T, config HypertClientConfig, projectID string) *http.Client {
	testDataDir := config.TestDataDir
	if config.SubDir != "" {
		testDataDir = filepath.Join(testDataDir, config.SubDir)
	}

	namingScheme, err := hypert.NewContentHashNamingScheme(testDataDir)
	if err != nil {
		t.Fatalf("failed to create naming scheme: %v", err)
	}

	hypertClient := hypert.TestClient(t, ShouldUpdate(),
		hypert.WithNamingScheme(namingScheme),
		hypert.WithRequestValidator(hypert.ComposedRequestValidator(
			hypert.PathValidator(),
			hypert.QueryParamsValidator(),
			hypert.MethodValidator(),
		)),
	)

	if !ShouldUpdate() {
		return hypertClient
	}

	// In record mode, wrap with OAuth2 authentication
	ctx := context.Background()
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		t.Fatalf("failed to get default credentials: %v", err)
	}
	oauth2Client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hypertClient), creds.TokenSource)
	if projectID == "" {
		return oauth2Client
	}

	return &http.Client{
		Transport: &quotaProjectTransport{
			base:      oauth2Client.Transport,
			projectID: projectID,
		},
		Timeout: oauth2Client.Timeout,
	}
}

// GeminiTestConfig configures Gemini client creation for tests
type GeminiTestConfig struct {
	Project  string
	Location string
	SubDir   string // Subdirectory for hypert test data
}

// DefaultGeminiTestConfig returns a default configuration for Gemini testing
func DefaultGeminiTestConfig(subDir string) GeminiTestConfig {
	return GeminiTestConfig{
		Project:  os.Getenv("GOOGLE_PROJECT_ID"),
		Location: os.Getenv("GOOGLE_REGION"),
		SubDir:   subDir,
	}
}

// NewGeminiClient creates a new Gemini client for testing with hypert caching
func NewGeminiClient(t *testing.T, config GeminiTestConfig) *genai.Client {
	ctx := context.Background()

	hypertClient := NewHypertClient(t, HypertClientConfig{
		TestDataDir: "testdata",
		SubDir:      config.SubDir,
	})

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:    genai.BackendVertexAI,
		Project:    config.Project,
		Location:   config.Location,
		HTTPClient: hypertClient,
	})
	if err != nil {
		t.Fatalf("failed to create genai client: %v", err)
	}

	return genaiClient
}

// NewGeminiEmbedder creates a new Gemini embedder for testing
func NewGeminiEmbedder(t *testing.T, config GeminiTestConfig, modelName string) *gemini.Embedder {
	genaiClient := NewGeminiClient(t, config)
	return gemini.NewEmbedder(genaiClient, modelName)
}

// NewLanguageClient creates a REST Cloud Natural Language client routed through hypert
func NewLanguageClient(t *testing.T, config GeminiTestConfig) *language.Client {
	ctx := context.Background()

	httpClient := NewAuthenticatedHypertClient(t, HypertClientConfig{
		TestDataDir: "testdata",
		SubDir:      config.SubDir,
	}, config.Project)

	client, err := language.NewRESTClient(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("failed to create language client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// NewGeminiLemmatizer creates a new Cloud Natural Language lemmatizer for testing
func NewGeminiLemmatizer(t *testing.T, config GeminiTestConfig) *gemini.GoogleLanguageLemmatizer {
	return gemini.NewGoogleLanguageLemmatizer(NewLanguageClient(t, config), "en")
}
