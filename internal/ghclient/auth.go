// Package ghclient is the PR boundary client: everything argus needs from
// the hosting platform to fetch a pull request's diff and publish a
// review (spec §6 Non-goals: the publisher's filtering policy is out of
// scope, but the fetch/publish contract it runs against is not).
package ghclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// CreateInstallationClient authenticates as a specific GitHub App
// installation and returns a Client plus the raw installation token.
func CreateInstallationClient(ctx context.Context, appID, installationID int64, privateKeyPath string, logger *slog.Logger) (Client, string, error) {
	logger.Info("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, "", fmt.Errorf("read private key from %s: %w", privateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, "", fmt.Errorf("create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create installation token for installation %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, "", fmt.Errorf("received an empty installation token")
	}
	logger.Info("created installation token", "installation_id", installationID, "expires_at", token.GetExpiresAt())

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)
	installationClient := github.NewClient(tc)

	return NewGitHubClient(installationClient, logger), token.GetToken(), nil
}
