package backtest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/tools/metrics"
)

// Outcome is one resolved setup.
type Outcome struct {
	Setup setup.Setup
	Win   bool
	// Return is the signed percentage move from the entry close to the exit close.
	Return    float64
	Bars      int
	ExitIndex int
	Exit      model.Candle
}

// Result aggregates the outcomes of one strategy over one series.
type Result struct {
	Strategy string
	Ticker   string
	Interval string

	Found      int
	Suppressed int
	Dropped    int
	Setups     int
	Wins       int
	Losses     int
	Accuracy   float64

	AverageWin      float64
	AverageLoss     float64
	WinStdDev       float64
	LossStdDev      float64
	AverageWinBars  float64
	AverageLossBars float64
	WinBarsStdDev   float64
	LossBarsStdDev  float64

	InitialBalance float64
	Balance        float64
	// Curve is the account balance after each outcome.
	Curve []float64

	Outcomes []Outcome
}

// Accumulator builds a Result one outcome at a time.
type Accumulator struct {
	result       Result
	positionSize float64
	winReturns   []float64
	lossReturns  []float64
	winBars      []float64
	lossBars     []float64
}

func NewAccumulator(strategy, ticker, interval string, initialBalance, positionSize float64) *Accumulator {
	return &Accumulator{
		positionSize: positionSize,
		result: Result{
			Strategy:       strategy,
			Ticker:         ticker,
			Interval:       interval,
			InitialBalance: initialBalance,
			Balance:        initialBalance,
		},
	}
}

// Add records a resolved setup and compounds the account balance by the position's
// share of the return.
func (a *Accumulator) Add(outcome Outcome) {
	a.result.Outcomes = append(a.result.Outcomes, outcome)
	a.result.Setups++
	if outcome.Win {
		a.result.Wins++
		a.winReturns = append(a.winReturns, outcome.Return)
		a.winBars = append(a.winBars, float64(outcome.Bars))
	} else {
		a.result.Losses++
		a.lossReturns = append(a.lossReturns, outcome.Return)
		a.lossBars = append(a.lossBars, float64(outcome.Bars))
	}

	a.result.Balance *= 1 + a.positionSize*outcome.Return/100
	a.result.Curve = append(a.result.Curve, a.result.Balance)
}

func (a *Accumulator) Found()    { a.result.Found++ }
func (a *Accumulator) Suppress() { a.result.Suppressed++ }
func (a *Accumulator) Drop()     { a.result.Dropped++ }

// Result computes the statistics of the outcomes added so far.
func (a *Accumulator) Result() Result {
	result := a.result
	result.Outcomes = append([]Outcome(nil), a.result.Outcomes...)
	result.Curve = append([]float64(nil), a.result.Curve...)

	if result.Setups > 0 {
		result.Accuracy = float64(result.Wins) / float64(result.Setups)
	}
	result.AverageWin, result.WinStdDev = meanStdDev(a.winReturns)
	result.AverageLoss, result.LossStdDev = meanStdDev(a.lossReturns)
	result.AverageWinBars, result.WinBarsStdDev = meanStdDev(a.winBars)
	result.AverageLossBars, result.LossBarsStdDev = meanStdDev(a.lossBars)
	return result
}

// meanStdDev uses the sample standard deviation, zero below two values.
func meanStdDev(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Returns lists the outcome returns in resolution order.
func (r Result) Returns() []float64 {
	return lo.Map(r.Outcomes, func(outcome Outcome, _ int) float64 {
		return outcome.Return
	})
}

// Profit is the balance change relative to the initial balance, in percent.
func (r Result) Profit() float64 {
	if r.InitialBalance == 0 {
		return 0
	}
	return (r.Balance/r.InitialBalance - 1) * 100
}

// SQN is the system quality number of the returns.
func (r Result) SQN() float64 {
	returns := r.Returns()
	if len(returns) < 2 {
		return 0
	}
	mean, stdDev := stat.MeanStdDev(returns, nil)
	if stdDev == 0 {
		return 0
	}
	return math.Sqrt(float64(len(returns))) * mean / stdDev
}

func (r Result) String() string {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.AppendBulk([][]string{
		{"Strategy", r.Strategy},
		{"Ticker", r.Ticker + " " + r.Interval},
		{"Setups", strconv.Itoa(r.Setups)},
		{"Win", strconv.Itoa(r.Wins)},
		{"Loss", strconv.Itoa(r.Losses)},
		{"Dropped", strconv.Itoa(r.Dropped)},
		{"Suppressed", strconv.Itoa(r.Suppressed)},
		{"% Win", fmt.Sprintf("%.1f", r.Accuracy*100)},
		{"Avg Win", fmt.Sprintf("%.2f %% (± %.2f) in %.1f bars", r.AverageWin, r.WinStdDev, r.AverageWinBars)},
		{"Avg Loss", fmt.Sprintf("%.2f %% (± %.2f) in %.1f bars", r.AverageLoss, r.LossStdDev, r.AverageLossBars)},
		{"Balance", fmt.Sprintf("%.2f (%.2f %%)", r.Balance, r.Profit())},
	})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
	return buffer.String()
}

// Summary writes the result table of every run, the return histogram and the bootstrap
// confidence intervals.
func Summary(w io.Writer, results ...Result) {
	var (
		setups, wins, losses, dropped int
		returns                       []float64
	)

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Strategy", "Ticker", "Setups", "Win", "Loss", "Dropped", "% Win",
		"Avg Win", "Avg Loss", "Payoff", "Pr Fact.", "SQN", "Profit"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, result := range results {
		table.Append([]string{
			result.Strategy,
			result.Ticker + " " + result.Interval,
			strconv.Itoa(result.Setups),
			strconv.Itoa(result.Wins),
			strconv.Itoa(result.Losses),
			strconv.Itoa(result.Dropped),
			fmt.Sprintf("%.1f %%", result.Accuracy*100),
			fmt.Sprintf("%.2f %%", result.AverageWin),
			fmt.Sprintf("%.2f %%", result.AverageLoss),
			fmt.Sprintf("%.3f", metrics.Payoff(result.Returns())),
			fmt.Sprintf("%.3f", metrics.ProfitFactor(result.Returns())),
			fmt.Sprintf("%.1f", result.SQN()),
			fmt.Sprintf("%.2f %%", result.Profit()),
		})

		setups += result.Setups
		wins += result.Wins
		losses += result.Losses
		dropped += result.Dropped
		returns = append(returns, result.Returns()...)
	}

	accuracy := 0.0
	if setups > 0 {
		accuracy = float64(wins) / float64(setups) * 100
	}
	table.SetFooter([]string{
		"TOTAL", "",
		strconv.Itoa(setups),
		strconv.Itoa(wins),
		strconv.Itoa(losses),
		strconv.Itoa(dropped),
		fmt.Sprintf("%.1f %%", accuracy),
		"", "",
		fmt.Sprintf("%.3f", metrics.Payoff(returns)),
		fmt.Sprintf("%.3f", metrics.ProfitFactor(returns)),
		"", "",
	})
	table.Render()
	fmt.Fprintln(w, buffer.String())

	if len(returns) == 0 {
		return
	}

	fmt.Fprintln(w, "------ RETURN -------")
	hist := histogram.Hist(15, returns)
	if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
		fmt.Fprintf(w, "histogram: %v\n", err)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
	for _, result := range results {
		values := result.Returns()
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(w, "| %s %s |\n", result.Strategy, result.Ticker)
		returnsInterval := metrics.Bootstrap(values, metrics.Mean, 10000, 0.95)
		payoffInterval := metrics.Bootstrap(values, metrics.Payoff, 10000, 0.95)
		profitFactorInterval := metrics.Bootstrap(values, metrics.ProfitFactor, 10000, 0.95)
		fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
			returnsInterval.Mean, returnsInterval.Lower, returnsInterval.Upper)
		fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
			payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
		fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
			profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
	}
	fmt.Fprintln(w)
}

// SaveReturns writes one return per line, in resolution order.
func (r Result) SaveReturns(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, value := range r.Returns() {
		if _, err := fmt.Fprintf(file, "%.4f\n", value); err != nil {
			return err
		}
	}
	return nil
}
