package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ToolkitProvider talks to an Identity-Toolkit compatible REST service.
type ToolkitProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewToolkitProvider builds the REST adapter. A nil client gets one with the given timeout.
func NewToolkitProvider(baseURL, apiKey string, client *http.Client, timeout time.Duration) *ToolkitProvider {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ToolkitProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

var _ Provider = (*ToolkitProvider)(nil)

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	IDToken     string `json:"idToken"`
}

type idTokenRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
		Disabled      bool   `json:"disabled"`
	} `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *ToolkitProvider) CreateCredential(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	if err := p.call(ctx, "accounts:signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return nil, err
	}
	return p.sessionFromToken(ctx, resp)
}

func (p *ToolkitProvider) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	if err := p.call(ctx, "accounts:signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return nil, err
	}
	return p.sessionFromToken(ctx, resp)
}

func (p *ToolkitProvider) SendVerificationEmail(ctx context.Context, session *Session) error {
	if !session.Active() {
		return &Error{Code: CodeSessionEnded}
	}
	return p.call(ctx, "accounts:sendOobCode", oobRequest{RequestType: "VERIFY_EMAIL", IDToken: session.IDToken}, nil)
}

// SignOut drops the session's tokens. ID tokens stay valid at the provider until they expire.
func (p *ToolkitProvider) SignOut(ctx context.Context, session *Session) error {
	if session != nil {
		session.end()
	}
	return nil
}

func (p *ToolkitProvider) DeleteCredential(ctx context.Context, session *Session) error {
	if !session.Active() {
		return &Error{Code: CodeSessionEnded}
	}
	if err := p.call(ctx, "accounts:delete", idTokenRequest{IDToken: session.IDToken}, nil); err != nil {
		return err
	}
	session.end()
	return nil
}

func (p *ToolkitProvider) VerifyToken(ctx context.Context, idToken string) (*Session, error) {
	var resp lookupResponse
	if err := p.call(ctx, "accounts:lookup", idTokenRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &Error{Code: CodeUserNotFound}
	}
	user := resp.Users[0]
	if user.Disabled {
		return nil, &Error{Code: CodeUserDisabled}
	}
	session := &Session{
		SubjectID:     user.LocalID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		IDToken:       idToken,
	}
	if claims, err := ReadClaims(idToken); err == nil && claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (p *ToolkitProvider) sessionFromToken(ctx context.Context, resp tokenResponse) (*Session, error) {
	session := &Session{
		SubjectID:    resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil {
		session.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}

	claims, err := ReadClaims(resp.IDToken)
	if err == nil {
		session.EmailVerified = claims.EmailVerified
		return session, nil
	}

	// Opaque token: ask the provider for the verification state instead.
	live, err := p.VerifyToken(ctx, resp.IDToken)
	if err != nil {
		return nil, err
	}
	session.EmailVerified = live.EmailVerified
	return session, nil
}

func (p *ToolkitProvider) call(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", p.baseURL, method, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Error.Message == "" {
			return &Error{Code: CodeUnknown, Detail: fmt.Sprintf("%s: HTTP %d", method, resp.StatusCode)}
		}
		return &Error{Code: codeFromMessage(apiErr.Error.Message), Detail: apiErr.Error.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: CodeUnknown, Err: fmt.Errorf("decode %s response: %w", method, err)}
	}
	return nil
}

// codeFromMessage maps provider messages such as "WEAK_PASSWORD : Password should be..." to codes.
func codeFromMessage(msg string) Code {
	key := strings.TrimSpace(msg)
	if i := strings.Index(key, ":"); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}

	switch key {
	case "EMAIL_EXISTS":
		return CodeEmailAlreadyInUse
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return CodeUserNotFound
	case "INVALID_PASSWORD", "MISSING_PASSWORD":
		return CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS":
		return CodeInvalidCredential
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return CodeTooManyRequests
	case "USER_DISABLED":
		return CodeUserDisabled
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return CodeInvalidToken
	default:
		return CodeUnknown
	}
}
