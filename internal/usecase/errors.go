package usecase

import "errors"

// ConfigurationError marks bad wiring for a single campaign or mailbox
// (unknown strategy key, missing SMTP credentials). The affected record is
// skipped for the invocation; the run itself continues.
type ConfigurationError struct {
	Code    string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// TransientError wraps failures worth retrying: network errors, 429s and
// 5xx responses from the content generator or the transport.
type TransientError struct {
	Code    string
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PermanentError marks failures retrying cannot fix: malformed generator
// output, transport authentication rejections.
type PermanentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PermanentError) Error() string {
	return e.Message
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
