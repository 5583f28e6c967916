// Package client is the Go client for the Parley membership and
// permission API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config represents the configuration for the Parley client
type Config struct {
	// BaseURL is the base URL of the Parley service
	BaseURL string
	// Token is the bearer token sent on authenticated endpoints
	Token string
	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client
	// Timeout is the default request timeout
	Timeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:4780",
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
	}
}

// Client is the Parley service client
type Client struct {
	config *Config
	client *http.Client
}

// NewClient creates a new Parley client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		config: config,
		client: client,
	}
}

// SetToken replaces the bearer token used for authenticated endpoints.
// Call it after Login or Signup.
func (c *Client) SetToken(token string) {
	c.config.Token = token
}

// User mirrors the user record returned by the API.
type User struct {
	UserID      string    `json:"user_id"`
	OrgID       string    `json:"org_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Permissions uint32    `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Organization mirrors the organization record returned by the API.
type Organization struct {
	OrgID         string    `json:"org_id"`
	BusinessName  string    `json:"business_name"`
	Subscription  string    `json:"subscription"`
	NumberOfUsers int       `json:"number_of_users"`
	MaxUsers      int       `json:"max_users"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SignupRequest represents an organization signup request
type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname,omitempty"`
	BusinessName string `json:"business_name"`
	Subscription string `json:"subscription"`
}

// SignupResponse represents an organization signup response
type SignupResponse struct {
	Ok           bool          `json:"ok"`
	User         *User         `json:"user"`
	Organization *Organization `json:"organization"`
	Token        string        `json:"token"`
}

// Signup registers a new organization and stores the returned session
// token on the client.
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Email == "" || req.Password == "" || req.BusinessName == "" || req.Subscription == "" {
		return nil, errors.New("email, password, business_name, and subscription are required")
	}

	endpoint := fmt.Sprintf("%s/api/auth/signup", c.config.BaseURL)
	var resp SignupResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	c.config.Token = resp.Token
	return &resp, nil
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Ok    bool   `json:"ok"`
	Token string `json:"token"`
}

// Login authenticates and stores the returned session token on the client.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}

	endpoint := fmt.Sprintf("%s/api/auth/login", c.config.BaseURL)
	var resp LoginResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	c.config.Token = resp.Token
	return &resp, nil
}

// CheckPermissionResponse represents a permission check response
type CheckPermissionResponse struct {
	Ok            bool `json:"ok"`
	HasPermission bool `json:"hasPermission"`
}

// CheckPermission reports whether the user registered under email holds
// the given permission bit.
func (c *Client) CheckPermission(ctx context.Context, email string, permission uint32) (*CheckPermissionResponse, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("permission", strconv.FormatUint(uint64(permission), 10))
	endpoint := fmt.Sprintf("%s/api/permissions/check?%s", c.config.BaseURL, query.Encode())

	var resp CheckPermissionResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetPermissionRequest represents a permission toggle request
type SetPermissionRequest struct {
	Email       string `json:"email"`
	Permissions uint32 `json:"permissions"`
}

// SetPermissionResponse represents a permission toggle response
type SetPermissionResponse struct {
	Ok   bool  `json:"ok"`
	User *User `json:"user"`
}

// SetPermission toggles one permission bit on the user registered under
// email and returns the updated record.
func (c *Client) SetPermission(ctx context.Context, req *SetPermissionRequest) (*SetPermissionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Email == "" {
		return nil, errors.New("email is required")
	}

	endpoint := fmt.Sprintf("%s/api/permissions/set", c.config.BaseURL)
	var resp SetPermissionResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSubuserRequest represents a sub-user creation request
type CreateSubuserRequest struct {
	FirstName   string  `json:"firstname"`
	LastName    string  `json:"lastname,omitempty"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Permissions *uint32 `json:"permissions,omitempty"`
}

// CreateSubuserResponse represents a sub-user creation response
type CreateSubuserResponse struct {
	Ok   bool  `json:"ok"`
	User *User `json:"user"`
}

// CreateSubuser adds a sub-user to the caller's organization
func (c *Client) CreateSubuser(ctx context.Context, req *CreateSubuserRequest) (*CreateSubuserResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		return nil, errors.New("firstname, email, and password are required")
	}

	endpoint := fmt.Sprintf("%s/api/subuser/create", c.config.BaseURL)
	var resp CreateSubuserResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSubuser removes a sub-user from the caller's organization by email
func (c *Client) DeleteSubuser(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("email is required")
	}

	endpoint := fmt.Sprintf("%s/api/subuser/delete", c.config.BaseURL)
	var resp struct {
		Ok bool `json:"ok"`
	}
	return c.post(ctx, endpoint, map[string]string{"email": email}, &resp)
}

// OrganizationResponse represents an organization read response
type OrganizationResponse struct {
	Ok           bool          `json:"ok"`
	Organization *Organization `json:"organization"`
}

// Organization retrieves the caller's organization
func (c *Client) Organization(ctx context.Context) (*OrganizationResponse, error) {
	endpoint := fmt.Sprintf("%s/api/org", c.config.BaseURL)
	var resp OrganizationResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrganizationRequest represents an organization update request
type UpdateOrganizationRequest struct {
	BusinessName string `json:"business_name,omitempty"`
	Subscription string `json:"subscription,omitempty"`
}

// UpdateOrganization updates the caller's organization profile
func (c *Client) UpdateOrganization(ctx context.Context, req *UpdateOrganizationRequest) (*OrganizationResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	endpoint := fmt.Sprintf("%s/api/org/update", c.config.BaseURL)
	var resp OrganizationResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MembersResponse represents a member listing response
type MembersResponse struct {
	Ok      bool    `json:"ok"`
	Members []*User `json:"members"`
}

// Members lists the caller's organization members
func (c *Client) Members(ctx context.Context) (*MembersResponse, error) {
	endpoint := fmt.Sprintf("%s/api/org/members", c.config.BaseURL)
	var resp MembersResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// APIError defines a standardized error response from the API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (Status: %d)", e.Message, e.StatusCode)
}

// post performs a POST request to the specified endpoint with the given request and unmarshals the response into the specified response object
func (c *Client) post(ctx context.Context, endpoint string, req interface{}, resp interface{}) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	if err := checkStatus(httpResp); err != nil {
		return err
	}

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// get performs a GET request to the specified endpoint and unmarshals the response into the specified response object
func (c *Client) get(ctx context.Context, endpoint string, resp interface{}) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	if err := checkStatus(httpResp); err != nil {
		return err
	}

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}

// checkStatus decodes the API error payload on a non-success status code
func checkStatus(httpResp *http.Response) error {
	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.NewDecoder(httpResp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return &APIError{
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("request failed with status code %d", httpResp.StatusCode),
		}
	}

	apiErr.StatusCode = httpResp.StatusCode
	return &apiErr
}
