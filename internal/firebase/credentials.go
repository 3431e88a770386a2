package firebase

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServiceAccount holds the identifying fields of a service account key file.
// The raw key material is kept only to build the authenticated transport.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`

	raw []byte
}

// LoadServiceAccount reads and validates a service account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	sa, err := ParseServiceAccount(data)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return sa, nil
}

// ParseServiceAccount validates a service account key document.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var doc struct {
		ServiceAccount
		PrivateKey string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid service account JSON: %w", err)
	}
	if doc.Type != "" && doc.Type != "service_account" {
		return nil, fmt.Errorf("unsupported credential type %q", doc.Type)
	}
	if doc.ProjectID == "" {
		return nil, fmt.Errorf("project_id is missing")
	}
	if doc.ClientEmail == "" {
		return nil, fmt.Errorf("client_email is missing")
	}
	if doc.PrivateKey == "" {
		return nil, fmt.Errorf("private_key is missing")
	}
	sa := doc.ServiceAccount
	sa.raw = append([]byte(nil), data...)
	return &sa, nil
}

// JSON returns the original key document.
func (sa *ServiceAccount) JSON() []byte { return sa.raw }
