// Package testutil provides an in-process stand-in for a Keycloak realm.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"oidc-registration-test/internal/conf"
)

// Default values served by a FakeKeycloak.
const (
	Realm        = "demo"
	ClientID     = "registration-test"
	ClientSecret = "client-secret-value"
	Audience     = "account"
	Code         = "auth-code-0001"
	RedirectURI  = "http://app.local/"
	AccessToken  = "eyJhbGciOiJSUzI1NiJ9.registration-test.signature"
)

type cannedResponse struct {
	status int
	body   string
}

// FakeKeycloak serves the token and userinfo endpoints of one realm.
// Authorization codes are single use, as in Keycloak.
type FakeKeycloak struct {
	server *httptest.Server

	mu               sync.Mutex
	userInfo         map[string]any
	usedCodes        map[string]bool
	tokenOverride    *cannedResponse
	userInfoOverride *cannedResponse
	tokenRequests    int
	userInfoRequests int
	lastTokenForm    url.Values
	lastTokenHeader  http.Header
	lastUserInfoHdr  http.Header
}

// StartFakeKeycloak starts the server and stops it when the test ends.
func StartFakeKeycloak(t *testing.T) *FakeKeycloak {
	t.Helper()
	kc := &FakeKeycloak{
		userInfo: map[string]any{
			"sub":            "0b9c3f6e-2a41-4c55-9d2e-7f1a3b5c8d90",
			"email":          "jane.doe@example.com",
			"email_verified": true,
			"name":           "Jane Doe",
		},
		usedCodes: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/realms/"+Realm+"/protocol/openid-connect/token", kc.token)
	mux.HandleFunc("GET /auth/realms/"+Realm+"/protocol/openid-connect/userinfo", kc.userinfo)
	kc.server = httptest.NewServer(mux)
	t.Cleanup(kc.server.Close)
	return kc
}

// URL is the KEYCLOAK_URL of the fake.
func (kc *FakeKeycloak) URL() string { return kc.server.URL }

// UserInfoURL is the USERINFO_URL of the fake.
func (kc *FakeKeycloak) UserInfoURL() string {
	return kc.server.URL + "/auth/realms/" + Realm + "/protocol/openid-connect/userinfo"
}

// Provider returns settings that complete a flow against this fake.
func (kc *FakeKeycloak) Provider() conf.Provider {
	return conf.Provider{
		KeycloakURL:       kc.URL(),
		Realm:             Realm,
		ClientID:          ClientID,
		ClientSecret:      ClientSecret,
		Audience:          Audience,
		UserInfoURL:       kc.UserInfoURL(),
		RedirectURI:       RedirectURI,
		AuthorizationCode: Code,
	}
}

// SetUserInfo replaces the claims served by the userinfo endpoint.
func (kc *FakeKeycloak) SetUserInfo(claims map[string]any) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.userInfo = claims
}

// SetTokenResponse makes the token endpoint answer with a fixed status and body.
func (kc *FakeKeycloak) SetTokenResponse(status int, body string) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.tokenOverride = &cannedResponse{status: status, body: body}
}

// SetUserInfoResponse makes the userinfo endpoint answer with a fixed status and body.
func (kc *FakeKeycloak) SetUserInfoResponse(status int, body string) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.userInfoOverride = &cannedResponse{status: status, body: body}
}

// TokenRequests returns the number of token endpoint calls.
func (kc *FakeKeycloak) TokenRequests() int {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.tokenRequests
}

// UserInfoRequests returns the number of userinfo endpoint calls.
func (kc *FakeKeycloak) UserInfoRequests() int {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.userInfoRequests
}

// LastTokenForm returns the form of the most recent token request.
func (kc *FakeKeycloak) LastTokenForm() url.Values {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.lastTokenForm
}

// LastTokenHeader returns the headers of the most recent token request.
func (kc *FakeKeycloak) LastTokenHeader() http.Header {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.lastTokenHeader
}

// LastUserInfoHeader returns the headers of the most recent userinfo request.
func (kc *FakeKeycloak) LastUserInfoHeader() http.Header {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.lastUserInfoHdr
}

func (kc *FakeKeycloak) token(w http.ResponseWriter, r *http.Request) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	kc.tokenRequests++
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	kc.lastTokenForm = r.PostForm
	kc.lastTokenHeader = r.Header.Clone()

	if kc.tokenOverride != nil {
		writeRaw(w, kc.tokenOverride)
		return
	}

	f := r.PostForm
	switch {
	case f.Get("client_id") != ClientID || f.Get("client_secret") != ClientSecret:
		writeError(w, http.StatusUnauthorized, "unauthorized_client", "Invalid client credentials")
	case f.Get("grant_type") != conf.GrantType:
		writeError(w, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant_type")
	case f.Get("redirect_uri") != RedirectURI+"callback":
		writeError(w, http.StatusBadRequest, "invalid_grant", "Incorrect redirect_uri")
	case f.Get("code") != Code || kc.usedCodes[f.Get("code")]:
		writeError(w, http.StatusBadRequest, "invalid_grant", "Code not valid")
	default:
		kc.usedCodes[f.Get("code")] = true
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  AccessToken,
			"token_type":    "Bearer",
			"expires_in":    300,
			"refresh_token": "refresh-" + Code,
			"id_token":      "id-" + Code,
			"scope":         f.Get("scope"),
		})
	}
}

func (kc *FakeKeycloak) userinfo(w http.ResponseWriter, r *http.Request) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	kc.userInfoRequests++
	kc.lastUserInfoHdr = r.Header.Clone()

	if kc.userInfoOverride != nil {
		writeRaw(w, kc.userInfoOverride)
		return
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token != AccessToken {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token verification failed")
		return
	}
	writeJSON(w, http.StatusOK, kc.userInfo)
}

func writeRaw(w http.ResponseWriter, resp *cannedResponse) {
	if json.Valid([]byte(resp.body)) {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/html")
	}
	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
