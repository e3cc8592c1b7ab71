package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuleihq/branchsite/internal/pkg/env"
)

// Provider is the external branch-provisioning collaborator. The control
// plane never depends on its wire format beyond this interface.
type Provider interface {
	// CreateBranch provisions a new isolated database branch and returns
	// its connection endpoint.
	CreateBranch(ctx context.Context, dbName, branchName, region string) (string, error)
	// DeleteDatabase tears down the database behind an endpoint.
	DeleteDatabase(ctx context.Context, endpoint string) error
}

// HTTPProvider talks to the provisioning provider's REST API.
type HTTPProvider struct {
	client *resty.Client
}

type createBranchRequest struct {
	Database string `json:"database"`
	Branch   string `json:"branch"`
	Region   string `json:"region"`
}

type createBranchResponse struct {
	OK       bool   `json:"ok"`
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

type deleteDatabaseRequest struct {
	Endpoint string `json:"endpoint"`
}

type statusResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewHTTPProvider creates a provider client for the given API base URL.
func NewHTTPProvider(baseURL, token string, timeout time.Duration) *HTTPProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPProvider{client: client}
}

// NewHTTPProviderFromEnv builds the provider client from the environment.
func NewHTTPProviderFromEnv() *HTTPProvider {
	return NewHTTPProvider(
		env.GetEnv("BRANCH_PROVIDER_URL", ""),
		env.GetEnv("BRANCH_PROVIDER_TOKEN", ""),
		30*time.Second,
	)
}

// CreateBranch calls the provider's branch-creation endpoint.
func (p *HTTPProvider) CreateBranch(ctx context.Context, dbName, branchName, region string) (string, error) {
	var out createBranchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(createBranchRequest{Database: dbName, Branch: branchName, Region: region}).
		SetResult(&out).
		Post("/v1/branches")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.OK {
		return "", fmt.Errorf("provider refused branch creation: %s", out.Error)
	}
	if out.Endpoint == "" {
		return "", errors.New("provider returned an empty endpoint")
	}
	return out.Endpoint, nil
}

// DeleteDatabase calls the provider's teardown endpoint.
func (p *HTTPProvider) DeleteDatabase(ctx context.Context, endpoint string) error {
	var out statusResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(deleteDatabaseRequest{Endpoint: endpoint}).
		SetResult(&out).
		Post("/v1/databases/delete")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.OK {
		return fmt.Errorf("provider refused database deletion: %s", out.Error)
	}
	return nil
}
