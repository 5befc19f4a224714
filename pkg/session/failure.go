package session

import (
	"errors"
	"fmt"

	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/merge"
	"github.com/sdejongh/devsync/pkg/models"
	"github.com/sdejongh/devsync/pkg/netaddr"
)

// ErrSampleProject is returned when a sample project is synchronized
var ErrSampleProject = errors.New("sample projects cannot be synchronized")

// Failure is a categorized session error
type Failure struct {
	Category models.ErrorCategory
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Category, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Message returns the text shown to the user
func (f *Failure) Message() string {
	var te *link.TransferError
	switch {
	case errors.Is(f.Err, merge.ErrMergeInProgress):
		return merge.ErrMergeInProgress.Error()
	case errors.As(f.Err, &te):
		return te.Message()
	case f.Category == models.CategoryOther && f.Err != nil:
		return fmt.Sprintf("%s (%v)", f.Category.Message(), f.Err)
	}
	return f.Category.Message()
}

// failure categorizes err
func failure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, ErrSampleProject):
		return &Failure{Category: models.CategorySampleProject, Err: err}
	case errors.Is(err, netaddr.ErrNoActiveInterfaces):
		return &Failure{Category: models.CategoryNoActiveInterfaces, Err: err}
	case errors.Is(err, netaddr.ErrNoRoutableInterface):
		return &Failure{Category: models.CategoryNoRoutableInterface, Err: err}
	case errors.Is(err, merge.ErrMergeInProgress):
		return &Failure{Category: models.CategoryOther, Err: err}
	}
	return &Failure{Category: link.Category(err), Err: err}
}
