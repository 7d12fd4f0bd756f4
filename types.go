package setupbot

import (
	"github.com/jibbril/setupbot/model"
)

type (
	Settings         = model.Settings
	TelegramSettings = model.TelegramSettings
	Candle           = model.Candle
	TimeSeries       = model.TimeSeries
	Series           = model.Series[float64]
	Orientation      = model.Orientation
)

var (
	OrientationLong  = model.OrientationLong
	OrientationShort = model.OrientationShort
)
