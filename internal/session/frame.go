package session

import "encoding/json"

const (
	// RequestAction tags the single outbound analysis request.
	RequestAction = "gameAnalysis"

	// CompletionAction tags the inbound frame carrying the finished analysis.
	CompletionAction = "analyzeGame"
)

// Frame is one inbound message, decoded only as far as its action tag.
type Frame struct {
	Action string
	Raw    json.RawMessage
}

// requestFrame is the wire form of an analysis request.
type requestFrame struct {
	Action  string         `json:"action"`
	Game    gamePayload    `json:"game"`
	Options requestOptions `json:"options"`
}

type gamePayload struct {
	PGN string `json:"pgn"`
}

type requestOptions struct {
	Caps2       bool          `json:"caps2"`
	GetNullMove bool          `json:"getNullMove"`
	EngineType  string        `json:"engineType"`
	Source      requestSource `json:"source"`
	TEP         tepOptions    `json:"tep"`
	Strength    string        `json:"strength"`
}

type requestSource struct {
	GameID       string `json:"gameId"`
	GameType     string `json:"gameType"`
	Token        string `json:"token"`
	Client       string `json:"client"`
	UserTimeZone string `json:"userTimeZone"`
}

type tepOptions struct {
	CEEDebug         bool   `json:"ceeDebug"`
	Lang             string `json:"lang"`
	SpeechV2         bool   `json:"speechv2"`
	UserColor        string `json:"userColor"`
	ClassificationV3 bool   `json:"classificationv3"`
}

// actionHeader reads just the discriminator of an inbound frame.
type actionHeader struct {
	Action *string `json:"action"`
}
