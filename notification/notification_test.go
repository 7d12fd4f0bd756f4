package notification

import (
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/service/mocks"
	"github.com/jibbril/setupbot/setup"
)

func newSetup(t *testing.T, o model.Orientation) setup.Setup {
	t.Helper()
	ts, err := model.NewTimeSeries("BTCUSDT", "1h", model.Candle{
		Pair:     "BTCUSDT",
		Time:     time.Date(2023, 5, 2, 14, 0, 0, 0, time.UTC),
		Open:     99,
		High:     101,
		Low:      98,
		Close:    100,
		Complete: true,
	})
	require.NoError(t, err)

	s, err := setup.New(ts, 0, o, resolution.NewPercentageDrawdown(2, 4))
	require.NoError(t, err)
	return s
}

func TestSetupMessage(t *testing.T) {
	message := setupMessage(newSetup(t, model.OrientationLong))
	assert.True(t, strings.HasPrefix(message, "🟢 *LONG* setup on *BTCUSDT* (1h)"))
	assert.Contains(t, message, "Price: `100.000000`")
	assert.Contains(t, message, "Stop loss: `98.000000`")
	assert.Contains(t, message, "Take profit: `104.000000`")
	assert.Contains(t, message, "Time: `2023-05-02 14:00`")

	message = setupMessage(newSetup(t, model.OrientationShort))
	assert.True(t, strings.HasPrefix(message, "🔻 *SHORT*"))
	assert.Contains(t, message, "Stop loss: `102.000000`")
	assert.Contains(t, message, "Take profit: `96.000000`")
}

func TestFormatSetups(t *testing.T) {
	assert.Equal(t, "No setups found yet", formatSetups(nil))

	text := formatSetups([]setup.Setup{newSetup(t, model.OrientationLong), newSetup(t, model.OrientationShort)})
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "*LATEST SETUPS*", lines[0])
	assert.Equal(t, "🟢 `05-02 14:00` BTCUSDT long at `100.000000`", lines[1])
	assert.Equal(t, "🔻 `05-02 14:00` BTCUSDT short at `100.000000`", lines[2])
}

func TestAllowedUser(t *testing.T) {
	assert.True(t, allowedUser([]int{1, 42}, 42))
	assert.False(t, allowedUser([]int{1, 42}, 7))
	assert.False(t, allowedUser(nil, 1))
}

func TestSetupMail(t *testing.T) {
	text := setupMail(newSetup(t, model.OrientationLong))
	assert.True(t, strings.HasPrefix(text, "Subject: 🟢 long SETUP - BTCUSDT\r\n\r\n"))
	assert.Contains(t, text, "BTCUSDT 1h long at 2023-05-02 14:00")
}

func TestMulti(t *testing.T) {
	s := newSetup(t, model.OrientationLong)
	failure := errors.New("feed closed")

	first, second := mocks.NewNotifier(t), mocks.NewNotifier(t)
	for _, notifier := range []*mocks.Notifier{first, second} {
		notifier.On("Notify", "hello").Return().Once()
		notifier.On("OnSetup", mock.MatchedBy(func(got setup.Setup) bool {
			return got.ID == s.ID
		})).Return().Once()
		notifier.On("OnError", failure).Return().Once()
	}

	multi := Multi{first, second}
	multi.Notify("hello")
	multi.OnSetup(s)
	multi.OnError(failure)
}

func TestRedisDefaultChannel(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	defer client.Close()

	assert.Equal(t, DefaultRedisChannel, newRedis(client, "").channel)
	assert.Equal(t, "custom", newRedis(client, "custom").channel)
}
