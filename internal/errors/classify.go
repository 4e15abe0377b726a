package errors

import (
	stderrors "errors"

	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// Classify maps errors from the inject and reactive packages to their
// registered codes. Errors it does not recognize are returned as a
// StatekitError without a code; nil stays nil.
func Classify(err error) *StatekitError {
	if err == nil {
		return nil
	}

	var se *StatekitError
	if stderrors.As(err, &se) {
		return se
	}

	var nre *inject.NotRegisteredError
	if stderrors.As(err, &nre) {
		e := New("E001").WithSubject(nre.Key.String()).Wrap(err)
		if nre.Key.Tag != "" {
			e.Suggestion = "Register it with inject.PutTagged using the same tag"
		}
		return e
	}

	var ce *inject.ConstructionError
	if stderrors.As(err, &ce) {
		return New("E002").WithSubject(ce.Key.String()).Wrap(err)
	}

	var sub *reactive.SubscriberError
	if stderrors.As(err, &sub) {
		return New("E003").Wrap(err)
	}

	switch {
	case stderrors.Is(err, reactive.ErrNestedRun):
		return New("E004").Wrap(err)
	case stderrors.Is(err, reactive.ErrViewDisposed):
		return New("E005").Wrap(err)
	}

	return &StatekitError{Message: err.Error(), Wrapped: err}
}
