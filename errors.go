package gamereview

import (
	"errors"

	"github.com/discochess/gamereview/internal/fault"
)

// Sentinel errors for well-defined error conditions. Every error returned by
// a Client matches at most one of the kinds below via errors.Is, plus
// context.Canceled when the caller gave up.
var (
	// ErrTransport indicates a network or HTTP failure at any step.
	ErrTransport = fault.ErrTransport

	// ErrAccountProvisioning indicates no analysis credential could be minted.
	ErrAccountProvisioning = fault.ErrAccountProvisioning

	// ErrLookup indicates the player, month or game index does not exist.
	ErrLookup = fault.ErrLookup

	// ErrProtocol indicates the analysis service sent a malformed frame.
	ErrProtocol = fault.ErrProtocol

	// ErrAnalysisTimeout indicates the analysis did not complete in time.
	ErrAnalysisTimeout = fault.ErrAnalysisTimeout

	// ErrMalformedResponse indicates a payload lacked an expected field.
	ErrMalformedResponse = fault.ErrMalformedResponse

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("gamereview: client closed")
)
