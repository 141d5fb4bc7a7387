package converter

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// Port turns one PDF into a native document. Implementations run inside
// an isolated worker process and must not share mutable state.
type Port interface {
	Convert(ctx context.Context, sourcePath string, opts Options) (*Document, error)
}

// Options are the per-job conversion knobs.
type Options struct {
	Device   constants.Device
	ForceOCR bool
}

// Failure is a converter-reported failure on one document.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Fail builds a Failure of the given kind.
func Fail(kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from err, defaulting to ConversionError.
func KindOf(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Kind != "" {
		return f.Kind
	}
	return common.KindConversion
}

// PortFunc adapts a function to Port.
type PortFunc func(ctx context.Context, sourcePath string, opts Options) (*Document, error)

func (f PortFunc) Convert(ctx context.Context, sourcePath string, opts Options) (*Document, error) {
	return f(ctx, sourcePath, opts)
}
