package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// AzureTokenProvider issues Entra ID tokens for Azure Database for PostgreSQL.
type AzureTokenProvider struct {
	credential azcore.TokenCredential
	name       string
}

// NewAzureTokenProvider picks the credential from what is configured. A
// client secret selects a service principal and then needs the tenant and
// client IDs too. Without a secret the DefaultAzureCredential chain is used
// (environment, workload identity, managed identity, developer CLIs),
// restricted to tenantID when one is given.
func NewAzureTokenProvider(tenantID, clientID, clientSecret string) (*AzureTokenProvider, error) {
	if clientSecret != "" {
		if tenantID == "" || clientID == "" {
			return nil, fmt.Errorf("azure client secret needs a tenant ID and a client ID: %w", ddlstore.ErrInvalidConfig)
		}
		cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client secret credential: %w", err)
		}
		return &AzureTokenProvider{
			credential: cred,
			name:       fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	name := "AzureDefaultCredential"
	if tenantID != "" {
		name = fmt.Sprintf("AzureDefaultCredential(tenant=%s)", tenantID)
	}
	return &AzureTokenProvider{credential: cred, name: name}, nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{AzurePostgreSQLScope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token request failed: %w", err)
	}
	return tok.Token, tok.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string { return p.name }
