package vrfdeploy

import "errors"

// Sentinel errors. Components wrap these with %w so the top-level handler
// and tests can tell failure causes apart with errors.Is.
var (
	ErrMissingConfig    = errors.New("vrfdeploy: missing config")
	ErrInvalidParameter = errors.New("vrfdeploy: invalid parameter")

	ErrPersist  = errors.New("vrfdeploy: persist arguments failed")
	ErrArtifact = errors.New("vrfdeploy: invalid contract artifact")

	ErrNetwork            = errors.New("vrfdeploy: network error")
	ErrInsufficientFunds  = errors.New("vrfdeploy: insufficient funds")
	ErrDeploymentReverted = errors.New("vrfdeploy: deployment reverted")
	ErrSigning            = errors.New("vrfdeploy: signing failed")
)
