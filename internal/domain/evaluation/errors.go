package evaluation

import "errors"

var (
	ErrInvalidStatus     = errors.New("invalid evaluation status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrJobNotFound       = errors.New("evaluation job not found")
	ErrAlreadyClaimed    = errors.New("evaluation job already claimed")

	ErrSubjectURLRequired = errors.New("subject url is required")
	ErrInvalidSubjectURL  = errors.New("invalid subject url")
	ErrAudienceRequired   = errors.New("target audience is required")

	ErrDispatchFailed = errors.New("dispatch to worker failed")

	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrModelNotFound      = errors.New("panel model not found")
	ErrAlreadyInProgress  = errors.New("panel evaluation already in progress")
)
