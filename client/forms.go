package client

import (
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"
)

// verificationTokenField is the hidden anti-forgery input on the portal
// login form.
const verificationTokenField = "__RequestVerificationToken"

// oidcFields are the hidden inputs on the post-login page that must be
// replayed to the signin-oidc endpoint to obtain the session cookie.
var oidcFields = []string{"code", "scope", "state", "session_state"}

// parseFormInputs walks an HTML document and collects the value attribute
// of every <input> element, keyed by its name attribute.
func parseFormInputs(r io.Reader) (map[string]string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login page HTML: %w", err)
	}

	inputs := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var name, value string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				}
			}
			if name != "" {
				inputs[name] = value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return inputs, nil
}

// verificationToken extracts the anti-forgery token from the login page.
func verificationToken(inputs map[string]string) (string, error) {
	token, ok := inputs[verificationTokenField]
	if !ok || token == "" {
		return "", fmt.Errorf("%w: login page has no verification token", ErrParse)
	}
	return token, nil
}

// oidcParams extracts the OIDC callback values from the post-login page.
// The portal renders the login form again, without these inputs, when the
// credentials are rejected.
func oidcParams(inputs map[string]string) (url.Values, error) {
	params := make(url.Values, len(oidcFields))
	for _, field := range oidcFields {
		value, ok := inputs[field]
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: login response is missing OIDC field %q", ErrAuthentication, field)
		}
		params.Set(field, value)
	}
	return params, nil
}
