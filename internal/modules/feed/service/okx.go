package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/internal/modules/config"
	healthsvc "nur_bot/internal/modules/health/service"
	"nur_bot/pkg/logger"
)

// OKXSource streams closed candles for a single instrument over the public
// OKX websocket, after backfilling enough history over REST for the EMA200
// warm-up to finish without waiting 200 live bars.
type OKXSource struct {
	cfg    *config.Config
	health *healthsvc.State

	http     *http.Client
	wsDialer *websocket.Dialer
}

func NewOKXSource(cfg *config.Config, health *healthsvc.State) *OKXSource {
	return &OKXSource{
		cfg:      cfg,
		health:   health,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
	}
}

func (s *OKXSource) Candles(ctx context.Context) <-chan models.Candle {
	out := make(chan models.Candle)

	go func() {
		defer close(out)

		need := s.cfg.Strategy.EMAPeriod + s.cfg.Strategy.ATRPeriod + s.cfg.Feed.BackfillMin
		hist, err := s.GetCandles(ctx, need)
		if err != nil {
			logger.Error("[FEED] backfill %s failed: %v, warming up from live stream", s.cfg.Symbol, err)
		}
		var last time.Time
		for _, c := range hist {
			select {
			case out <- c:
				last = c.Start
			case <-ctx.Done():
				return
			}
		}
		logger.Info("[FEED] backfill done: %d candles %s %s", len(hist), s.cfg.Symbol, s.cfg.Timeframe)

		s.stream(ctx, out, last)
	}()

	return out
}

// stream is the reconnecting websocket loop. after is the start of the last
// candle already emitted; bars at or before it are dropped so the backfill
// seam never produces an out-of-order candle.
func (s *OKXSource) stream(ctx context.Context, out chan<- models.Candle, after time.Time) {
	channel := "candle" + s.cfg.Timeframe
	sub := map[string]any{
		"op": "subscribe",
		"args": []map[string]string{
			{"channel": channel, "instId": s.cfg.Symbol},
		},
	}

	for {
		if ctx.Err() != nil {
			return
		}

		logger.Info("[WS] connect %s %s", channel, s.cfg.Symbol)
		conn, _, err := s.wsDialer.DialContext(ctx, s.cfg.Feed.WSURL, nil)
		if err != nil {
			logger.Error("[WS] dial error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("[WS] subscribe error: %v", err)
			_ = conn.Close()
			continue
		}
		s.health.SetWSConnected(true)

		// keepalive ping every 20s, OKX drops idle connections
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Error("[WS] read error: %v", err)
				break
			}

			var frame struct {
				Arg struct {
					Channel string `json:"channel"`
					InstID  string `json:"instId"`
				} `json:"arg"`
				Data [][]string `json:"data"`
			}
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				continue
			}
			if frame.Arg.Channel != channel || frame.Arg.InstID != s.cfg.Symbol {
				continue
			}

			for _, row := range frame.Data {
				c, ok := s.parseRow(row)
				if !ok || !c.Start.After(after) {
					continue
				}
				select {
				case out <- c:
					after = c.Start
				case <-ctx.Done():
					close(stopPing)
					_ = conn.Close()
					return
				}
			}
		}

		close(stopPing)
		_ = conn.Close()
		s.health.SetWSConnected(false)

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

// parseRow decodes one OKX candle row:
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]. Only confirmed
// (closed) bars are accepted.
func (s *OKXSource) parseRow(row []string) (models.Candle, bool) {
	if len(row) < 6 {
		return models.Candle{}, false
	}
	// confirm flag is always the last element
	if row[len(row)-1] != "1" {
		return models.Candle{}, false
	}

	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, false
	}
	start := time.UnixMilli(tsMs)

	open, err1 := strconv.ParseFloat(row[1], 64)
	high, err2 := strconv.ParseFloat(row[2], 64)
	low, err3 := strconv.ParseFloat(row[3], 64)
	closep, err4 := strconv.ParseFloat(row[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Candle{}, false
	}
	var vol float64
	if len(row) >= 6 {
		vol, _ = strconv.ParseFloat(row[5], 64)
	}

	return models.Candle{
		Symbol: s.cfg.Symbol,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closep,
		Volume: vol,
		Start:  start,
		End:    start.Add(s.cfg.Period()),
	}, true
}

// GetCandles fetches the most recent n closed candles over REST, oldest
// first. OKX caps one page at 300 bars, enough for a 200-EMA warm-up.
func (s *OKXSource) GetCandles(ctx context.Context, n int) ([]models.Candle, error) {
	if n > 300 {
		n = 300
	}
	url := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		s.cfg.Feed.RESTURL, s.cfg.Symbol, s.cfg.Timeframe, n)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build candles request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch candles")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read candles response")
	}

	var payload struct {
		Code string     `json:"code"`
		Msg  string     `json:"msg"`
		Data [][]string `json:"data"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode candles response")
	}
	if payload.Code != "0" {
		return nil, errors.Errorf("okx candles: code=%s msg=%s", payload.Code, payload.Msg)
	}

	// newest first on the wire; skip the still-forming bar and reverse
	out := make([]models.Candle, 0, len(payload.Data))
	for i := len(payload.Data) - 1; i >= 0; i-- {
		if c, ok := s.parseRow(payload.Data[i]); ok {
			out = append(out, c)
		}
	}
	return out, nil
}
