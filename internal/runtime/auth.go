package runtime

import (
	"context"
	"fmt"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"

	gc "github.com/joshsymonds/autolabel/internal/gmail"
	"github.com/joshsymonds/autolabel/internal/rate"
)

// NewGmailClient authenticates with the credentials gmailctl keeps in
// cfgDir (credentials.json and token.json) and returns a rate-limited client.
func NewGmailClient(ctx context.Context, cfgDir string, limiter rate.Limiter) (gc.Client, error) {
	svc, err := (localcred.Provider{}).Service(ctx, cfgDir)
	if err != nil {
		return nil, fmt.Errorf("gmail service from %s: %w", cfgDir, err)
	}
	return NewGoogleAPIClient(svc, limiter), nil
}
