package credential

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMissing is returned when either half of the client credential is empty.
var ErrMissing = errors.New("gateway client id and secret are required")

// Credential is the OAuth client credential issued by the payment gateway.
type Credential struct {
	ClientID     string
	ClientSecret string
}

// New trims and validates the client id/secret pair.
func New(clientID, clientSecret string) (Credential, error) {
	c := Credential{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
	}
	if err := c.Validate(); err != nil {
		return Credential{}, err
	}
	return c, nil
}

func (c Credential) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissing
	}
	return nil
}

// BasicAuth returns the value for an Authorization header: "Basic base64(id:secret)".
func (c Credential) BasicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.ClientID+":"+c.ClientSecret))
}

// String never reveals the secret.
func (c Credential) String() string {
	return "credential{" + c.ClientID + ":***}"
}
