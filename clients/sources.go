package clients

// ExternalSource identifies a match snapshot provider.
type ExternalSource string

const (
	// ExternalSourceCricketData is the cricketdata.org REST API.
	ExternalSourceCricketData ExternalSource = "cricketdata"

	// ExternalSourceManual represents manually entered fixtures.
	ExternalSourceManual ExternalSource = "manual"
)

// ExternalSourceConfig holds metadata for a snapshot provider.
type ExternalSourceConfig struct {
	Source      ExternalSource `json:"source"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Active      bool           `json:"active"`
}

// GetExternalSources returns all known snapshot providers. Exactly one
// provider is selected at startup via configuration; new providers
// implement the poller's SnapshotSource interface and register here.
func GetExternalSources() map[ExternalSource]ExternalSourceConfig {
	return map[ExternalSource]ExternalSourceConfig{
		ExternalSourceCricketData: {
			Source:      ExternalSourceCricketData,
			Name:        "CricketData",
			Description: "cricketdata.org match feed",
			Active:      true,
		},
		ExternalSourceManual: {
			Source:      ExternalSourceManual,
			Name:        "Manual Entry",
			Description: "Manually entered fixture data",
			Active:      false,
		},
	}
}

// ValidateExternalSource checks if the source is known.
func ValidateExternalSource(source ExternalSource) bool {
	_, exists := GetExternalSources()[source]
	return exists
}
