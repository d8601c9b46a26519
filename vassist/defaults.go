package vassist

// Application-wide defaults shared by config discovery and the cmd front-end.
const (
	DefaultAppName    = "virtual-assistant"
	DefaultConfigPath = "/etc/virtual-assistant"

	// DefaultLanguage is the BCP-47 tag the assistant answers in unless
	// configured otherwise.
	DefaultLanguage = "tr-TR"
)
