package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/signon/pkg/observability"
)

const emulatorAPIPath = "/identitytoolkit.googleapis.com/v1"

// EmulatorProvider implements PasswordProvider against a local Identity
// Toolkit emulator
type EmulatorProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *observability.Logger

	mu      sync.RWMutex
	current *User
}

// NewEmulatorProvider creates a provider for the emulator at addr (host:port)
func NewEmulatorProvider(addr, apiKey string, opts ...Option) *EmulatorProvider {
	o := buildOptions(opts)

	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &EmulatorProvider{
		baseURL:    strings.TrimSuffix(base, "/") + emulatorAPIPath,
		apiKey:     apiKey,
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithEmailAndPassword signs in an existing emulator account
func (p *EmulatorProvider) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*Credential, error) {
	return p.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

// CreateUserWithEmailAndPassword creates an emulator account and signs it in
func (p *EmulatorProvider) CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*Credential, error) {
	return p.passwordCall(ctx, "accounts:signUp", email, password)
}

func (p *EmulatorProvider) passwordCall(ctx context.Context, method, email, password string) (*Credential, error) {
	var resp accountResponse
	err := p.post(ctx, method, passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	user := &User{
		UID:           resp.LocalID,
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		EmailVerified: resp.EmailVerified,
		IDToken:       resp.IDToken,
		RefreshToken:  resp.RefreshToken,
	}
	p.applyTokenClaims(user)

	p.mu.Lock()
	p.current = user
	p.mu.Unlock()

	return &Credential{User: user, ProviderID: ProviderIDPassword}, nil
}

func (p *EmulatorProvider) post(ctx context.Context, method string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", p.baseURL, method, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Code: CodeInternalError, Message: "emulator request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Code: CodeInternalError, Status: resp.StatusCode, Message: "failed to read emulator response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.Unmarshal(data, &er); err != nil || er.Error.Message == "" {
			return &ProviderError{Code: CodeInternalError, Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		p.logger.WithField("method", method).WithField("message", er.Error.Message).Debug("Emulator rejected request")
		return &ProviderError{
			Code:    errorCodeFor(er.Error.Message),
			Status:  resp.StatusCode,
			Message: er.Error.Message,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ProviderError{Code: CodeInternalError, Status: resp.StatusCode, Message: "failed to decode emulator response", Err: err}
	}
	return nil
}

// emulatorClaims are the ID token claims the emulator fills in that its
// password endpoints leave out of the response body
type emulatorClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// applyTokenClaims fills user fields from its ID token. Emulator tokens are
// unsigned, so the token is parsed without verification; the backend
// verifies it when the session begins.
func (p *EmulatorProvider) applyTokenClaims(user *User) {
	var claims emulatorClaims
	if _, _, err := jwt.NewParser().ParseUnverified(user.IDToken, &claims); err != nil {
		p.logger.WithError(err).Debug("Emulator ID token is not a JWT")
		return
	}

	if claims.EmailVerified {
		user.EmailVerified = true
	}
	if user.DisplayName == "" {
		user.DisplayName = claims.Name
	}
	if user.Email == "" {
		user.Email = claims.Email
	}
	if user.UID == "" {
		user.UID = claims.Subject
	}
}

// errorCodeFor maps an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a code
func errorCodeFor(message string) string {
	reason := message
	if i := strings.Index(reason, " "); i >= 0 {
		reason = reason[:i]
	}

	switch reason {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return CodeUserNotFound
	case "EMAIL_EXISTS":
		return CodeEmailAlreadyInUse
	case "INVALID_PASSWORD":
		return CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS":
		return CodeInvalidCredential
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "USER_DISABLED":
		return CodeUserDisabled
	default:
		return CodeInternalError
	}
}

// SignOut forgets the current user. The emulator keeps no server-side sign-in state.
func (p *EmulatorProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return nil
}

// CurrentUser returns the signed-in user, or nil
func (p *EmulatorProvider) CurrentUser() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}
