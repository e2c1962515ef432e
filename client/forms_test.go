package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterflow/greenchoice_adapter/common"
)

func TestParseFormInputs(t *testing.T) {
	page := `<html><body>
		<form method="post">
			<input type="hidden" name="__RequestVerificationToken" value="tok-123"/>
			<input type="text" name="Username" value="prefilled"/>
			<input type="password" name="Password"/>
			<input type="text" value="nameless"/>
		</form>
	</body></html>`

	inputs, err := parseFormInputs(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "tok-123", inputs["__RequestVerificationToken"])
	assert.Equal(t, "prefilled", inputs["Username"])
	assert.Equal(t, "", inputs["Password"])
	assert.Len(t, inputs, 3, "inputs without a name attribute are skipped")
}

func TestParseFormInputs_ToleratesSloppyMarkup(t *testing.T) {
	// The html package repairs unclosed tags the way browsers do
	page := `<form><input name="code" value="abc"><div><input name="state" value="xyz">`

	inputs, err := parseFormInputs(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "abc", inputs["code"])
	assert.Equal(t, "xyz", inputs["state"])
}

func TestVerificationToken(t *testing.T) {
	token, err := verificationToken(map[string]string{
		"__RequestVerificationToken": "tok-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestVerificationToken_Missing(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]string
	}{
		{name: "absent", inputs: map[string]string{"Username": ""}},
		{name: "empty value", inputs: map[string]string{"__RequestVerificationToken": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verificationToken(tt.inputs)
			require.Error(t, err)
			assert.Equal(t, common.ErrorKindParse, KindOf(err))
		})
	}
}

func TestOIDCParams(t *testing.T) {
	params, err := oidcParams(map[string]string{
		"code":          "code-1",
		"scope":         "openid",
		"state":         "state-1",
		"session_state": "sess-1",
		"unrelated":     "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "code-1", params.Get("code"))
	assert.Equal(t, "openid", params.Get("scope"))
	assert.Equal(t, "state-1", params.Get("state"))
	assert.Equal(t, "sess-1", params.Get("session_state"))
	assert.NotContains(t, params, "unrelated")
}

func TestOIDCParams_MissingFieldMeansRejectedCredentials(t *testing.T) {
	// A rejected login re-renders the login form, which has the token
	// input but none of the OIDC callback fields.
	_, err := oidcParams(map[string]string{
		"__RequestVerificationToken": "tok-123",
		"code":                       "code-1",
		"scope":                      "openid",
	})
	require.Error(t, err)
	assert.Equal(t, common.ErrorKindAuthentication, KindOf(err))
}
