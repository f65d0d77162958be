// Package edgerc loads EdgeGrid API credentials from an edgerc file.
package edgerc

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Credentials is one edgerc section: the API host plus the three EdgeGrid
// authentication tokens.
type Credentials struct {
	Host         string // normalized to https://... with no trailing slash
	ClientToken  string
	ClientSecret string
	AccessToken  string
}

// Load reads the named section from an edgerc file.
func Load(path, section string) (*Credentials, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	sec, err := file.GetSection(section)
	if err != nil {
		return nil, fmt.Errorf("section %q not found in %s", section, path)
	}

	host := strings.TrimSpace(sec.Key("host").String())
	if host == "" {
		return nil, fmt.Errorf("missing 'host' key in section %q of %s", section, path)
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	host = strings.TrimRight(host, "/")

	creds := &Credentials{
		Host:         host,
		ClientToken:  sec.Key("client_token").String(),
		ClientSecret: sec.Key("client_secret").String(),
		AccessToken:  sec.Key("access_token").String(),
	}
	for key, value := range map[string]string{
		"client_token":  creds.ClientToken,
		"client_secret": creds.ClientSecret,
		"access_token":  creds.AccessToken,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("missing %q key in section %q of %s", key, section, path)
		}
	}
	return creds, nil
}

// SignHost returns the host without scheme, as the EdgeGrid signer expects.
func (c *Credentials) SignHost() string {
	host := strings.TrimPrefix(c.Host, "https://")
	return strings.TrimPrefix(host, "http://")
}
