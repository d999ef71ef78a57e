// Package callback parses the redirect payload delivered by the identity
// provider. Providers are inconsistent about where they put parameters:
// server-visible query string, URL hash fragment (forwarded to us by the
// callback page bootstrap), or nowhere at all when the provider already
// processed tokens on its own. The parser reads every surface once and the
// result is immutable for the rest of the attempt.
package callback

import (
	"net/url"
	"strings"
)

// FlowType is the flow indicator signaled by the provider. It is present
// inconsistently: sometimes in the query string, sometimes in the hash
// fragment, sometimes absent and only inferable from a later auth event.
type FlowType string

const (
	FlowInvite    FlowType = "invite"
	FlowMagicLink FlowType = "magiclink"
	FlowRecovery  FlowType = "recovery"
	FlowOAuth     FlowType = "oauth"
	FlowUnknown   FlowType = "unknown"
)

// Params is the parsed redirect payload for one callback attempt.
type Params struct {
	Code             string
	AccessToken      string
	RefreshToken     string
	Type             FlowType
	Error            string
	ErrorDescription string
	InvitationID     string
	State            string

	// Raw surfaces, kept for recovery-signal detection which must see
	// the URL exactly as the provider produced it.
	Path     string
	Query    string
	Fragment string
	FullURL  string
}

// Parse extracts the callback payload from the request URL and the hash
// fragment forwarded by the callback page. Pure and deterministic: same
// URL in, same Params out. Unknown parameters are ignored, known ones are
// trimmed, nothing else is normalized.
func Parse(fullURL, fragment string) Params {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")

	p := Params{
		Fragment: fragment,
		FullURL:  fullURL,
		Type:     FlowUnknown,
	}

	if u, err := url.Parse(fullURL); err == nil {
		p.Path = u.Path
		p.Query = u.RawQuery
		if p.Fragment == "" {
			// Some providers mis-encode the fragment into the URL itself.
			p.Fragment = u.Fragment
		}
	}

	queryValues, _ := url.ParseQuery(p.Query)
	fragmentValues, _ := url.ParseQuery(p.Fragment)

	pick := func(key string) string {
		if v := strings.TrimSpace(fragmentValues.Get(key)); v != "" {
			return v
		}
		return strings.TrimSpace(queryValues.Get(key))
	}

	p.Code = pick("code")
	p.AccessToken = pick("access_token")
	p.RefreshToken = pick("refresh_token")
	p.Error = pick("error")
	p.ErrorDescription = pick("error_description")
	p.InvitationID = pick("invitation_id")
	p.State = pick("state")

	if t := pick("type"); t != "" {
		p.Type = parseFlowType(t)
	}

	return p
}

func parseFlowType(s string) FlowType {
	switch FlowType(s) {
	case FlowInvite, FlowMagicLink, FlowRecovery, FlowOAuth:
		return FlowType(s)
	default:
		return FlowUnknown
	}
}

// HasError reports whether the redirect itself carries a provider error.
func (p Params) HasError() bool { return p.Error != "" }

// HasCode reports whether an authorization code is present.
func (p Params) HasCode() bool { return p.Code != "" }

// HasTokens reports whether a direct token pair is present.
func (p Params) HasTokens() bool { return p.AccessToken != "" && p.RefreshToken != "" }

// Empty reports whether the redirect carried no usable parameters at all,
// meaning the ambient session must be consulted.
func (p Params) Empty() bool {
	return !p.HasError() && !p.HasCode() && p.AccessToken == "" && p.RefreshToken == ""
}
