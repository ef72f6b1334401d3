// Package chesskid mints analysis credentials by registering a throwaway
// ChessKid account and exchanging its session for an analysis token.
package chesskid

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/credential"
	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/stats"
)

const (
	// DefaultBaseURL is the ChessKid site that issues analysis tokens.
	DefaultBaseURL = "https://www.chesskid.com"

	// DefaultTimeout bounds each HTTP round trip.
	DefaultTimeout = 30 * time.Second

	sessionCookie  = "PHPSESSID"
	usernameLength = 15
	passwordLength = 20
	avatarFilename = "kid-1459.png"
	alphanumeric   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// browserAgents are rotated on the registration request.
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Provisioner registers a fresh account for every credential it mints.
// A Provisioner is safe for concurrent use.
type Provisioner struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	stats   stats.Collector
}

// Compile-time check that Provisioner implements credential.Source.
var _ credential.Source = (*Provisioner)(nil)

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithBaseURL overrides the ChessKid base URL.
func WithBaseURL(url string) Option {
	return func(p *Provisioner) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provisioner) { p.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provisioner) { p.logger = l }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(p *Provisioner) { p.stats = c }
}

// New creates a Provisioner with the given options.
func New(opts ...Option) *Provisioner {
	p := &Provisioner{
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		logger: zap.NewNop(),
		stats:  stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// registration is the account payload accepted by the registration endpoint.
type registration struct {
	AvatarFilename string `json:"avatarFilename"`
	Username       string `json:"username"`
	UserType       string `json:"userType"`
	Password       string `json:"password"`
	Email          string `json:"email"`
}

// Provision registers a new account and exchanges its session for a token.
func (p *Provisioner) Provision(ctx context.Context) (credential.Credential, error) {
	cred, err := p.provision(ctx)
	if err != nil {
		p.stats.IncCounter(stats.MetricCredentialErrors, 1)
		return credential.Credential{}, err
	}
	p.stats.IncCounter(stats.MetricCredentials, 1)
	return cred, nil
}

func (p *Provisioner) provision(ctx context.Context) (credential.Credential, error) {
	username, err := randomString(usernameLength)
	if err != nil {
		return credential.Credential{}, fault.New(fault.ErrAccountProvisioning, "generate username", err)
	}
	password, err := randomString(passwordLength)
	if err != nil {
		return credential.Credential{}, fault.New(fault.ErrAccountProvisioning, "generate password", err)
	}

	anon, err := p.anonymousSession(ctx)
	if err != nil {
		return credential.Credential{}, err
	}

	session, err := p.register(ctx, anon, registration{
		AvatarFilename: avatarFilename,
		Username:       username,
		UserType:       "kid",
		Password:       password,
		Email:          username + "@gmail.com",
	})
	if err != nil {
		return credential.Credential{}, err
	}
	p.logger.Debug("account registered", zap.String("username", username))

	token, err := p.token(ctx, session)
	if err != nil {
		return credential.Credential{}, err
	}
	return credential.Credential{Token: token, SessionID: session}, nil
}

// anonymousSession obtains an unauthenticated session cookie.
func (p *Provisioner) anonymousSession(ctx context.Context) (string, error) {
	const op = "anonymous session"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/register/user-type", nil)
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fault.Status(fault.ErrTransport, op, resp.StatusCode)
	}
	session := sessionFrom(resp)
	if session == "" {
		return "", fault.New(fault.ErrAccountProvisioning, op, fmt.Errorf("no %s cookie", sessionCookie))
	}
	return session, nil
}

// register creates the account under the anonymous session and returns the
// session cookie of the newly logged-in account.
func (p *Provisioner) register(ctx context.Context, anon string, r registration) (string, error) {
	const op = "register account"

	body, err := json.Marshal(r)
	if err != nil {
		return "", fault.New(fault.ErrAccountProvisioning, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/callback/register/account", bytes.NewReader(body))
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", randomAgent())
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: anon})

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fault.Status(fault.ErrTransport, op, resp.StatusCode)
	}

	var out struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fault.New(fault.ErrAccountProvisioning, op, fmt.Errorf("decoding response: %w", err))
	}
	if !strings.Contains(out.User.Username, r.Username) {
		return "", fault.New(fault.ErrAccountProvisioning, op,
			fmt.Errorf("registered username %q does not match %q", out.User.Username, r.Username))
	}

	session := sessionFrom(resp)
	if session == "" {
		return "", fault.New(fault.ErrAccountProvisioning, op, fmt.Errorf("no %s cookie", sessionCookie))
	}
	return session, nil
}

// token exchanges an account session for an analysis token.
func (p *Provisioner) token(ctx context.Context, session string) (string, error) {
	const op = "fetch analysis token"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/callback/auth/service/analysis", nil)
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fault.New(fault.ErrTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fault.Status(fault.ErrTransport, op, resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fault.New(fault.ErrAccountProvisioning, op, fmt.Errorf("decoding response: %w", err))
	}
	if out.Token == "" {
		return "", fault.New(fault.ErrAccountProvisioning, op, fmt.Errorf("empty token"))
	}
	return out.Token, nil
}

func sessionFrom(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	return ""
}

// randomString returns n characters drawn uniformly from [A-Za-z0-9].
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}

func randomAgent() string {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(browserAgents))))
	if err != nil {
		return browserAgents[0]
	}
	return browserAgents[idx.Int64()]
}
