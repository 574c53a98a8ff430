// Package errs maps the genotyper's four operational error kinds onto
// github.com/grailbio/base/errors's own Kind taxonomy, the way
// encoding/fasta/index.go and encoding/bamprovider/pamprovider.go build
// their errors: a Kind plus a message plus an optional wrapped cause,
// constructed through errors.E. cmd/strgt uses KindOf to decide how to
// react to a failure without inspecting strings.
package errs

import (
	"github.com/grailbio/base/errors"
)

// Kind is github.com/grailbio/base/errors's Kind, named locally so
// callers don't need their own import of the base package.
type Kind = errors.Kind

const (
	// Other is an unclassified error; KindOf returns it for errors that
	// carry no Kind.
	Other Kind = errors.Other
	// Malformed marks bad input that must fail the whole run before any
	// worker starts (bad catalog JSON, unknown variant subtype, ...).
	Malformed Kind = errors.Invalid
	// IO marks a failure reading the archive or reference; worker-local,
	// surfaced through the concurrency harness's cancellation path.
	IO Kind = errors.Unavailable
	// Insufficient marks locus-level data insufficiency (an unknown
	// contig). No caller recovers from it: catalog.Decode wraps it as
	// Malformed, and cmd/strgt fails the run on it as on any other
	// worker error. The no-reads case never produces an error; the locus
	// analyzer emits low_depth findings for it directly.
	Insufficient Kind = errors.Precondition
	// Invariant marks a runtime invariant violation (programmer error);
	// fails the run with a description.
	Invariant Kind = errors.Fatal
)

// E constructs a kind-tagged error via errors.E, in the style of
// errors.E(err, "message", ...) call sites across the teacher's
// encoding/fasta, encoding/pam/fieldio and markduplicates packages.
// Pass an existing error among args to wrap it as the cause.
func E(kind Kind, args ...interface{}) error {
	all := make([]interface{}, 0, len(args)+1)
	all = append(all, kind)
	all = append(all, args...)
	return errors.E(all...)
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *errors.Error, and Other otherwise.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*errors.Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Other
}
