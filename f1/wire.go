package f1

// Ergast-compatible wire format, reduced to the fields the client maps.
// All numeric fields arrive as strings.

type ergastResponse struct {
	MRData struct {
		RaceTable struct {
			Races []wireRace `json:"Races"`
		} `json:"RaceTable"`
		StandingsTable struct {
			StandingsLists []wireStandingsList `json:"StandingsLists"`
		} `json:"StandingsTable"`
	} `json:"MRData"`
}

type wireRace struct {
	Season  string       `json:"season"`
	Round   string       `json:"round"`
	Results []wireResult `json:"Results"`
}

type wireResult struct {
	Position    string          `json:"position"`
	Points      string          `json:"points"`
	Driver      wireDriver      `json:"Driver"`
	Constructor wireConstructor `json:"Constructor"`
}

type wireStandingsList struct {
	Season               string                    `json:"season"`
	DriverStandings      []wireDriverStanding      `json:"DriverStandings"`
	ConstructorStandings []wireConstructorStanding `json:"ConstructorStandings"`
}

type wireDriverStanding struct {
	Position     string            `json:"position"`
	Points       string            `json:"points"`
	Wins         string            `json:"wins"`
	Driver       wireDriver        `json:"Driver"`
	Constructors []wireConstructor `json:"Constructors"`
}

type wireConstructorStanding struct {
	Position    string          `json:"position"`
	Points      string          `json:"points"`
	Wins        string          `json:"wins"`
	Constructor wireConstructor `json:"Constructor"`
}

type wireDriver struct {
	DriverID   string `json:"driverId"`
	Code       string `json:"code"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

type wireConstructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
}
