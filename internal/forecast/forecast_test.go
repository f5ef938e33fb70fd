package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/bizlens/internal/table"
)

func load(t *testing.T, data string) *table.Table {
	t.Helper()
	tbl, err := table.Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl
}

// linearCSV builds n daily rows where revenue = 100 + 10*i.
func linearCSV(n int) string {
	var b strings.Builder
	b.WriteString("date,revenue\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,%d\n", start.AddDate(0, 0, i).Format("2006-01-02"), 100+10*i)
	}
	return b.String()
}

func TestNextMonth_NoDateColumn(t *testing.T) {
	tbl := load(t, "revenue\n1\n2\n3\n")

	res, err := NextMonth(context.Background(), tbl, "revenue")
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if !errors.Is(err, ErrNoDateColumn) {
		t.Fatalf("err = %v, want ErrNoDateColumn", err)
	}
	if Message(err) == "" {
		t.Error("Message() is empty for a missing date column")
	}
}

func TestNextMonth_MissingTarget(t *testing.T) {
	tbl := load(t, "date,revenue\n2024-01-01,1\n2024-01-02,2\n")

	_, err := NextMonth(context.Background(), tbl, "sales")
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "sales" {
		t.Fatalf("err = %v, want MissingColumnError{sales}", err)
	}
}

func TestNextMonth_TooFewRows(t *testing.T) {
	tbl := load(t, "date,revenue\n2024-01-01,1\nbad,2\n2024-01-01,NA\n")

	_, err := NextMonth(context.Background(), tbl, "revenue")
	if !errors.Is(err, ErrTooFewRows) {
		t.Fatalf("err = %v, want ErrTooFewRows", err)
	}
}

func TestNextMonth_LinearTrend(t *testing.T) {
	tbl := load(t, linearCSV(60))

	res, err := NextMonth(context.Background(), tbl, "revenue")
	if err != nil {
		t.Fatalf("NextMonth: %v", err)
	}

	if got, want := len(res.Series), 60+Horizon; got != want {
		t.Fatalf("len(Series) = %d, want %d", got, want)
	}
	future := 0
	for _, p := range res.Series[60:] {
		if p.Future {
			future++
		}
	}
	if future != Horizon {
		t.Errorf("future points = %d, want %d", future, Horizon)
	}

	// Days 60..89 continue the line, whose mean is 100 + 10*74.5.
	want := 845.0
	if math.Abs(res.Point-want) > 5 {
		t.Errorf("Point = %.2f, want ~%.2f", res.Point, want)
	}
	if !res.LastObserved.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastObserved = %v, want 2024-02-29", res.LastObserved)
	}
	if len(res.Seasonality) != 1 || res.Seasonality[0] != "weekly" {
		t.Errorf("Seasonality = %v, want [weekly]", res.Seasonality)
	}
}

func TestNextMonth_PointIsTrailingMean(t *testing.T) {
	res, err := NextMonth(context.Background(), load(t, linearCSV(20)), "revenue")
	if err != nil {
		t.Fatalf("NextMonth: %v", err)
	}
	var sum float64
	tail := res.Series[len(res.Series)-Horizon:]
	for _, p := range tail {
		sum += p.Yhat
	}
	if math.Abs(sum/Horizon-res.Point) > 1e-9 {
		t.Errorf("Point = %v, trailing mean = %v", res.Point, sum/Horizon)
	}
}

func TestNextMonth_DuplicateDates(t *testing.T) {
	tbl := load(t, "date,revenue\n2024-01-01,10\n2024-01-01,12\n2024-01-02,20\n2024-01-03,30\n")

	res, err := NextMonth(context.Background(), tbl, "revenue")
	if err != nil {
		t.Fatalf("NextMonth: %v", err)
	}
	if got := len(res.Series); got != 3+Horizon {
		t.Errorf("len(Series) = %d, want %d", got, 3+Horizon)
	}
	if res.Observations != 4 {
		t.Errorf("Observations = %d, want 4", res.Observations)
	}
}

func TestNextMonth_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NextMonth(ctx, load(t, linearCSV(10)), "revenue")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if Message(err) != "Forecast cancelled." {
		t.Errorf("Message() = %q", Message(err))
	}
}
