// Package notification delivers setups and errors to people and other services.
package notification

import (
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/setup"
)

func orientationIcon(s setup.Setup) string {
	if s.Orientation == model.OrientationShort {
		return "🔻"
	}
	return "🟢"
}

// Multi forwards every notification to each of its notifiers in order.
type Multi []service.Notifier

func (m Multi) Notify(text string) {
	for _, notifier := range m {
		notifier.Notify(text)
	}
}

func (m Multi) OnSetup(s setup.Setup) {
	for _, notifier := range m {
		notifier.OnSetup(s)
	}
}

func (m Multi) OnError(err error) {
	for _, notifier := range m {
		notifier.OnError(err)
	}
}
