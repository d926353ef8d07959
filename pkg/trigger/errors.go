package trigger

import "errors"

// Every failure class is fatal to the run: the first error halts all
// remaining steps and nothing is committed.
var (
	// ErrCheckoutFailed indicates a source repository could not be acquired
	ErrCheckoutFailed = errors.New("source checkout failed")

	// ErrProvisionFailed indicates the runtime container could not be provisioned
	ErrProvisionFailed = errors.New("runtime provisioning failed")

	// ErrInstallFailed indicates dependency installation failed
	ErrInstallFailed = errors.New("dependency install failed")

	// ErrGenerateFailed indicates the generation command exited nonzero
	ErrGenerateFailed = errors.New("generation command failed")

	// ErrExportFailed indicates generated artifacts could not be exported
	ErrExportFailed = errors.New("artifact export failed")

	// ErrCommitFailed indicates the persistence commit failed
	ErrCommitFailed = errors.New("artifact commit failed")

	// ErrNoDaggerClient indicates the pipeline has no container engine client
	ErrNoDaggerClient = errors.New("dagger client not initialized")
)

// IsGenerationFailure returns true if the error came from the generation step.
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerateFailed)
}
