package cricketdata

// BaseURL is the default cricketdata.org API root.
const BaseURL = "https://api.cricketdata.org/v1"

const (
	endpointCurrentMatches  = "/currentMatches"
	endpointUpcomingMatches = "/matches"
	endpointMatchInfo       = "/match_info"
	endpointSeries          = "/series"
)
