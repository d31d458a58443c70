package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barfeed/internal/indicator"
	"barfeed/internal/marketdata/csvfile"
	"barfeed/internal/model"
	"barfeed/internal/pipeline"
)

type sliceLoader []model.Bar

func (s sliceLoader) Load(context.Context) ([]model.Bar, error) { return s, nil }

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReplay_FileIngestion(t *testing.T) {
	path := writeCSV(t, "timestamp,open,high,low,close,volume\n"+
		"t1,1,2,0.5,1.5,10\n"+
		"t2,1.5,2.5,1,2,12\n")

	p := pipeline.New(pipeline.Config{})
	var dispatched []string
	p.Subscribe("rec", func(_ context.Context, tick model.Tick) error {
		assert.Equal(t, model.Period1m, tick.Period)
		dispatched = append(dispatched, tick.Bar.Timestamp)
		return nil
	})

	r := &Replayer{Loader: csvfile.NewReader(path), Period: model.Period1m}
	res, err := r.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Appended)
	assert.Equal(t, []string{"t1", "t2"}, dispatched)
	all, err := p.All(model.Period1m)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, other := range []model.Period{model.Period5m, model.Period1h, model.Period1d} {
		assert.Zero(t, p.Store().Len(other))
	}
}

func TestReplay_Deterministic(t *testing.T) {
	content := "timestamp,open,high,low,close,volume\n"
	price := 100.0
	for i := 0; i < 80; i++ {
		price += float64((i*7)%11) - 5
		content += "t," + ftoa(price) + "," + ftoa(price+1) + "," + ftoa(price-1) + "," + ftoa(price+0.25) + ",1\n"
	}
	path := writeCSV(t, content)

	run := func() ([]float64, indicator.MACDResult, []indicator.SARPoint) {
		p := pipeline.New(pipeline.Config{})
		_, err := (&Replayer{Loader: csvfile.NewReader(path), Period: model.Period1m}).Run(context.Background(), p)
		require.NoError(t, err)
		bars, err := p.All(model.Period1m)
		require.NoError(t, err)
		rsi, err := indicator.RSI(bars, 14)
		require.NoError(t, err)
		macd, err := indicator.MACD(bars, 12, 26, 9)
		require.NoError(t, err)
		sar, err := indicator.ParabolicSARSeries(bars, 0.02, 0.2)
		require.NoError(t, err)
		return rsi, macd, sar
	}

	rsi1, macd1, sar1 := run()
	rsi2, macd2, sar2 := run()
	assert.Equal(t, rsi1, rsi2)
	assert.Equal(t, macd1, macd2)
	assert.Equal(t, sar1, sar2)
}

func TestReplay_SourceUnavailable(t *testing.T) {
	r := &Replayer{Loader: csvfile.NewReader(filepath.Join(t.TempDir(), "missing.csv")), Period: model.Period1m}
	_, err := r.Run(context.Background(), pipeline.New(pipeline.Config{}))
	assert.True(t, errors.Is(err, model.ErrSourceUnavailable))
}

func TestReplay_InvalidPeriod(t *testing.T) {
	r := &Replayer{Loader: sliceLoader{{}}, Period: "2h"}
	_, err := r.Run(context.Background(), pipeline.New(pipeline.Config{}))
	assert.True(t, errors.Is(err, model.ErrInvalidPeriod))
}

func TestReplay_CancelBetweenBars(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := pipeline.New(pipeline.Config{})
	p.Subscribe("cancel-after-two", func(_ context.Context, tick model.Tick) error {
		if tick.Bar.Timestamp == "2" {
			cancel()
		}
		return nil
	})

	r := &Replayer{Loader: sliceLoader{{Timestamp: "1"}, {Timestamp: "2"}, {Timestamp: "3"}}, Period: model.Period1m}
	res, err := r.Run(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Appended)
	assert.Equal(t, 2, p.Store().Len(model.Period1m))
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
