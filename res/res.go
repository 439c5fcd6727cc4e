package res

const (
	AppName     = "nbexit"
	DisplayName = "NetBird Exit Node Manager"

	// KeyringService is the service name under which the API access
	// token is stored in the OS keyring.
	KeyringService = "nbexit"
)
