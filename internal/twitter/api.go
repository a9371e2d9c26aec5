package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dghubble/oauth1"
	twauth "github.com/dghubble/oauth1/twitter"
)

const defaultBaseURL = "https://api.twitter.com/1.1"

// API is the production implementation of Authorizer, backed by the
// Twitter v1.1 REST endpoints. Sessions it produces sign every request
// with OAuth1 using the application's consumer pair plus the session's
// access-token pair.
type API struct {
	config  *oauth1.Config
	baseURL string
}

// APIOption configures an API.
type APIOption func(*API)

// WithBaseURL overrides the REST base URL. Used in tests to point
// sessions at a local HTTP server.
func WithBaseURL(base string) APIOption {
	return func(a *API) {
		a.baseURL = strings.TrimRight(base, "/")
	}
}

// NewAPI creates an API for the given application consumer pair.
// The handshake uses the out-of-band (PIN) flow: no callback server is
// required, the operator types the verifier back in.
func NewAPI(consumerKey, consumerSecret string, opts ...APIOption) *API {
	a := &API{
		config: &oauth1.Config{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			CallbackURL:    "oob",
			Endpoint:       twauth.AuthorizeEndpoint,
		},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestAuthorization implements Authorizer. An error here means the
// consumer pair was rejected by the platform.
func (a *API) RequestAuthorization(ctx context.Context) (Authorization, error) {
	requestToken, requestSecret, err := a.config.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	authURL, err := a.config.AuthorizationURL(requestToken)
	if err != nil {
		return nil, fmt.Errorf("authorization url: %w", err)
	}
	return &pendingAuthorization{
		config: a.config,
		token:  requestToken,
		secret: requestSecret,
		url:    authURL.String(),
	}, nil
}

// Session returns a Client bound to the given access-token pair.
func (a *API) Session(tokenKey, tokenSecret string) Client {
	token := oauth1.NewToken(tokenKey, tokenSecret)
	return &session{
		baseURL:    a.baseURL,
		httpClient: a.config.Client(oauth1.NoContext, token),
	}
}

// pendingAuthorization is a handshake in flight, bound to one request token.
type pendingAuthorization struct {
	config *oauth1.Config
	token  string
	secret string
	url    string
}

func (p *pendingAuthorization) URL() string {
	return p.url
}

func (p *pendingAuthorization) Exchange(ctx context.Context, verifier string) (string, string, error) {
	accessToken, accessSecret, err := p.config.AccessToken(p.token, p.secret, strings.TrimSpace(verifier))
	if err != nil {
		return "", "", fmt.Errorf("exchange verifier: %w", err)
	}
	return accessToken, accessSecret, nil
}

// session is an authorized Client over the signed HTTP client.
type session struct {
	baseURL    string
	httpClient *http.Client
}

// searchResponse mirrors the subset of the search payload the bot reads.
type searchResponse struct {
	Statuses []struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
		User struct {
			ScreenName string `json:"screen_name"`
		} `json:"user"`
	} `json:"statuses"`
}

func (s *session) VerifySession(ctx context.Context) (bool, error) {
	resp, err := s.get(ctx, "/account/verify_credentials.json", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		// Credentials rejected, e.g. externally revoked
		return false, nil
	default:
		return false, apiError("verify_credentials", resp)
	}
}

func (s *session) Search(ctx context.Context, query string, sinceID int64) ([]Match, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", "100")
	if sinceID > 0 {
		params.Set("since_id", strconv.FormatInt(sinceID, 10))
	}

	resp, err := s.get(ctx, "/search/tweets.json", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("search", resp)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	matches := make([]Match, 0, len(payload.Statuses))
	for _, st := range payload.Statuses {
		matches = append(matches, Match{
			ID:     st.ID,
			Author: st.User.ScreenName,
			Text:   st.Text,
		})
	}
	return matches, nil
}

func (s *session) PostReply(ctx context.Context, text string, inReplyToID int64) error {
	form := url.Values{}
	form.Set("status", text)
	form.Set("in_reply_to_status_id", strconv.FormatInt(inReplyToID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/statuses/update.json", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("post reply", resp)
	}
	return nil
}

func (s *session) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resp, nil
}

// apiError folds a non-200 response into an error, keeping a short body
// snippet for diagnostics.
func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
