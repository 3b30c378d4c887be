package main

import "math/big"

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// sessionChangedMsg signals that the connection state changed
type sessionChangedMsg struct{}

// connectDoneMsg contains the result of a connect attempt
type connectDoneMsg struct {
	err error
}

// disconnectDoneMsg contains the result of a disconnect
type disconnectDoneMsg struct {
	err error
}

// balanceLoadedMsg contains a balance fetched for content generation gen
type balanceLoadedMsg struct {
	gen uint64
	wei *big.Int
	err error
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct{}

// clearCopiedMsg clears the clipboard feedback
type clearCopiedMsg struct{}

// logTickMsg refreshes the log panel while it is open
type logTickMsg struct{}
