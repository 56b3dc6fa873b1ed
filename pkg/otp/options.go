package otp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// InputType controls how slot characters are displayed.
type InputType string

const (
	InputText     InputType = "text"
	InputPassword InputType = "password"
)

// NoFocus is the focus index of a field no slot of which holds focus.
const NoFocus = -1

var (
	// ErrInvalidLength indicates a non-positive slot count.
	ErrInvalidLength = errors.New("otp: length must be positive")
	// ErrInvalidPlaceholder indicates a placeholder longer than one character.
	ErrInvalidPlaceholder = errors.New("otp: placeholder must be a single character")
	// ErrInvalidInputType indicates an input type other than text or password.
	ErrInvalidInputType = errors.New("otp: input type must be text or password")
)

// Options configures a Field. All options are read at construction time;
// Value and Length may later be replaced through SetValue and SetLength.
type Options struct {
	Length       int
	Value        string
	Placeholder  string
	Separator    string
	InputType    InputType
	Disabled     bool
	ReadOnly     bool
	DefaultFocus bool

	// OnChange receives the joined value after every mutation.
	OnChange func(value string)
	// OnComplete receives whether every slot is filled after every mutation.
	OnComplete func(complete bool)

	// Logger receives advisory validation warnings. The zero value discards.
	Logger zerolog.Logger
}

// Validate reports every problem with the options. Problems are advisory:
// New normalizes them instead of failing.
func (o Options) Validate() error {
	var errs []error
	if o.Length <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidLength, o.Length))
	}
	if n := len(splitGraphemes(o.Placeholder)); n > 1 {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidPlaceholder, o.Placeholder))
	}
	switch o.InputType {
	case "", InputText, InputPassword:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidInputType, o.InputType))
	}
	return errors.Join(errs...)
}

// normalize logs validation problems and returns options that are safe to use.
func (o Options) normalize() Options {
	if err := o.Validate(); err != nil {
		o.Logger.Warn().Err(err).Msg("otp field options adjusted")
	}
	if o.Length <= 0 {
		o.Length = 1
	}
	o.Placeholder = firstGrapheme(o.Placeholder)
	if o.InputType != InputPassword {
		o.InputType = InputText
	}
	return o
}
