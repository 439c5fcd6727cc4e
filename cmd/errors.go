package cmd

import (
	"errors"
	"fmt"
	"os"

	"nbexit/internal/config"
	"nbexit/internal/exitnode"
	"nbexit/internal/netbird"
)

func exitOnError(err error) {
	fmt.Fprintln(os.Stderr, friendly(err))
	os.Exit(1)
}

// friendly turns the typed errors of the engine and the API client into
// user-facing messages. The engine itself never formats text.
func friendly(err error) string {
	var apiErr *netbird.APIError

	switch {
	case errors.Is(err, config.ErrIncomplete):
		return "❌ Configuration error: " + err.Error()

	case errors.Is(err, netbird.ErrConnection):
		return "❌ Connection error: unable to reach the NetBird API server.\n" +
			"   This could mean:\n" +
			"   • The server is down or unreachable\n" +
			"   • You're not connected to the VPN/network\n" +
			"   • The API URL is incorrect\n" +
			"   • A firewall is blocking the connection"

	case errors.Is(err, netbird.ErrAuthentication):
		return "❌ Authentication error: the API rejected the access token.\n" +
			"   Check NETBIRD_ACCESS_TOKEN or run 'nbexit config set'."

	case errors.Is(err, exitnode.ErrPeerNotFound),
		errors.Is(err, exitnode.ErrExitNodeNotFound),
		errors.Is(err, exitnode.ErrAmbiguousPeer),
		errors.Is(err, exitnode.ErrNoDefaultRoute):
		return "❌ Error: " + err.Error()

	case errors.As(err, &apiErr):
		return fmt.Sprintf("❌ API error: unexpected response (status %d)\n   %s", apiErr.Status, apiErr.Body)

	default:
		return "❌ Error: " + err.Error()
	}
}
