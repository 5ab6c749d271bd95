package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// HTTPClient implements Client against a single API origin.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

type options struct {
	timeout   time.Duration
	logger    logging.Logger
	transport http.RoundTripper
	newID     func() string
}

// Option customizes an HTTPClient.
type Option func(*options)

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithRequestIDFunc replaces the X-Request-ID generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// NewHTTPClient returns a client for the API rooted at baseURL, e.g.
// "https://api.cpp-hub.com/api". tokens may be nil for anonymous use.
func NewHTTPClient(baseURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url has no host: %q", baseURL)
	}

	o := options{
		timeout:   10 * time.Second,
		logger:    logging.Nop(),
		transport: http.DefaultTransport,
		newID:     newRequestID,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http: &http.Client{
			Timeout: o.timeout,
			Transport: &authTransport{
				base:   o.transport,
				tokens: tokens,
				logger: o.logger,
				newID:  o.newID,
			},
		},
	}, nil
}

// BaseURL returns the API origin the client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (models.Identity, error) {
	var id models.Identity
	err := c.doJSON(ctx, http.MethodGet, "/user", nil, &id)
	return id, err
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	var res models.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login", creds, &res); err != nil {
		return models.LoginResult{}, err
	}
	if res.AccessToken == "" {
		return models.LoginResult{}, fmt.Errorf("%w: login response without access_token", ErrBadResponse)
	}
	return res, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) error {
	return c.doJSON(ctx, http.MethodPost, "/register", reg, nil)
}

func (c *HTTPClient) ResendVerification(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/email/verification-notification", nil, nil)
}

// UpdateProfile posts a multipart form with _method=PUT, the way the backend
// accepts file uploads on an update route.
func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Identity, error) {
	body, contentType, err := profileForm(upd)
	if err != nil {
		return models.Identity{}, err
	}

	var res struct {
		User models.Identity `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/profile", body, contentType, &res); err != nil {
		return models.Identity{}, err
	}
	return res.User, nil
}

func (c *HTTPClient) Profile(ctx context.Context, idOrUsername string) (models.Profile, error) {
	var p models.Profile
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(idOrUsername)+"/profile", nil, &p)
	return p, err
}

func (c *HTTPClient) BanUser(ctx context.Context, userID int64, req models.BanRequest) error {
	return c.doJSON(ctx, http.MethodPost, adminUserPath(userID, "ban"), req, nil)
}

func (c *HTTPClient) UnbanUser(ctx context.Context, userID int64) error {
	return c.doJSON(ctx, http.MethodPost, adminUserPath(userID, "unban"), nil, nil)
}

func (c *HTTPClient) ChangeGroup(ctx context.Context, userID int64, group privilege.Group) error {
	return c.doJSON(ctx, http.MethodPut, adminUserPath(userID, "group"), models.GroupChange{Group: string(group)}, nil)
}

// Ping reports whether the backend answers at all. Any HTTP status counts
// as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodGet, "/user", nil, nil)
	if _, ok := AsAPIError(err); ok {
		return nil
	}
	return err
}

func adminUserPath(userID int64, action string) string {
	return "/admin/users/" + strconv.FormatInt(userID, 10) + "/" + action
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrBadResponse, method, path, err)
	}
	return nil
}

func profileForm(upd models.ProfileUpdate) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	public := "0"
	if upd.Public {
		public = "1"
	}
	fields := [][2]string{
		{"_method", http.MethodPut},
		{"name", upd.Name},
		{"username", upd.Username},
		{"bio", upd.Bio},
		{"nationality", upd.Nationality},
		{"is_profile_public", public},
	}
	if upd.Avatar == nil && upd.ClearAvatar {
		fields = append(fields, [2]string{"clear_profile_picture", "1"})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}

	if upd.Avatar != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="profile_picture"; filename=%q`, upd.Avatar.Filename))
		ct := upd.Avatar.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create avatar part: %w", err)
		}
		if _, err := part.Write(upd.Avatar.Data); err != nil {
			return nil, "", fmt.Errorf("write avatar: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
