package service

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/pkg/logger"
)

// ReplaySource feeds candles from a CSV file in file order, for
// deterministic backtests. Expected columns:
// time,open,high,low,close[,volume] with an optional header row. Time is
// unix seconds, unix milliseconds, or RFC3339.
type ReplaySource struct {
	Path   string
	Symbol string
	Period time.Duration
}

func NewReplaySource(path, symbol string, period time.Duration) *ReplaySource {
	return &ReplaySource{Path: path, Symbol: symbol, Period: period}
}

func (s *ReplaySource) Candles(ctx context.Context) <-chan models.Candle {
	out := make(chan models.Candle)

	go func() {
		defer close(out)

		file, err := os.Open(s.Path)
		if err != nil {
			logger.Error("[REPLAY] open %s: %v", s.Path, err)
			return
		}
		defer func() { _ = file.Close() }()

		r := csv.NewReader(file)
		r.FieldsPerRecord = -1

		n := 0
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				logger.Error("[REPLAY] read %s: %v", s.Path, err)
				return
			}
			c, err := s.parseRecord(rec)
			if err != nil {
				if n == 0 {
					continue // header row
				}
				logger.Warn("[REPLAY] line %d: %v", n+1, err)
				continue
			}
			n++
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
		logger.Info("[REPLAY] %s: %d candles replayed", s.Path, n)
	}()

	return out
}

func (s *ReplaySource) parseRecord(rec []string) (models.Candle, error) {
	if len(rec) < 5 {
		return models.Candle{}, errors.Errorf("expected at least 5 fields, got %d", len(rec))
	}

	start, err := parseTime(strings.TrimSpace(rec[0]))
	if err != nil {
		return models.Candle{}, err
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return models.Candle{}, errors.Wrapf(err, "field %d", i+1)
		}
		vals[i] = v
	}
	var vol float64
	if len(rec) > 5 {
		vol, _ = strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
	}

	return models.Candle{
		Symbol: s.Symbol,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vol,
		Start:  start,
		End:    start.Add(s.Period),
	}, nil
}

func parseTime(v string) (time.Time, error) {
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ts > 1e12 {
			return time.UnixMilli(ts), nil
		}
		return time.Unix(ts, 0), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006.01.02 15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable time %q", v)
}
