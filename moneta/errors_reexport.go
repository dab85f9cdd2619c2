package moneta

import merrors "github.com/moneta/moneta/moneta/errors"

// Re-export error types so callers need a single import
type Error = merrors.Error
type ErrorKind = merrors.ErrorKind

const (
	ErrMissingTopic     = merrors.ErrMissingTopic
	ErrUnknownTopic     = merrors.ErrUnknownTopic
	ErrInvalidParameter = merrors.ErrInvalidParameter
	ErrUnconfiguredKey  = merrors.ErrUnconfiguredKey
	ErrInvalidKeyValue  = merrors.ErrInvalidKeyValue
	ErrConfig           = merrors.ErrConfig
	ErrSQL              = merrors.ErrSQL
	ErrIO               = merrors.ErrIO
	ErrCanceled         = merrors.ErrCanceled
)

func IsKind(err error, kind ErrorKind) bool { return merrors.IsKind(err, kind) }
func KindOf(err error) (ErrorKind, bool)    { return merrors.KindOf(err) }
