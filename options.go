package reports

import (
	"github.com/sirupsen/logrus"
)

type Option func(*Engine)

func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithBooleanLabels sets the localized strings boolean values render to.
func WithBooleanLabels(yes, no string) Option {
	return func(e *Engine) {
		e.yesLabel = yes
		e.noLabel = no
	}
}

// WithUnclassifiedLabel sets the group label used for rows whose group key
// is absent.
func WithUnclassifiedLabel(label string) Option {
	return func(e *Engine) {
		e.unclassifiedLabel = label
	}
}

// WithCurrencySymbol sources the symbol appended to currency fields from
// the caller's accounting context.
func WithCurrencySymbol(symbol func() string) Option {
	return func(e *Engine) {
		e.currencySymbol = symbol
	}
}
