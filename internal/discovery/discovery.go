// Package discovery performs the one-shot REST pairing that seeds the
// engine's static MarketPair list at startup (§1, §6). This is explicitly
// out of core scope — "only their contracts matter" — so the pipeline here
// stays deliberately thin: one GET per venue, title-similarity pairing,
// expiration-window filter. Only the first page each endpoint returns is
// read; further pages are not requested. No ranking, liquidity scoring, or
// re-querying. The resty client construction (timeout, retry) is adapted
// from the teacher's market.Scanner.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"arbmon/internal/types"
)

// pmMarket is the minimal slice of venue-A's Gamma market feed this
// package needs: enough to build one side of a MarketPair.
type pmMarket struct {
	Question     string `json:"question"`
	ClobTokenIds string `json:"clobTokenIds"`
	EndDateISO   string `json:"endDate"`
}

// kalshiMarket is the minimal slice of venue-B's markets feed needed.
type kalshiMarket struct {
	Ticker     string `json:"ticker"`
	Title      string `json:"title"`
	CloseTime  string `json:"close_time"`
}

// Config bundles the bootstrap-only tunables read from the environment.
type Config struct {
	PMGammaURL       string
	KalshiMarketsURL string
	TitleSimMin      float64
	TimeWindowHours  float64
}

// Fetch performs the one-shot, single-page discovery and returns the static
// pair list the engine is constructed with. Errors here are fatal at
// startup (§7).
func Fetch(ctx context.Context, cfg Config) ([]types.MarketPair, error) {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	pmMarkets, err := fetchPM(ctx, client, cfg.PMGammaURL)
	if err != nil {
		return nil, fmt.Errorf("fetch venue A markets: %w", err)
	}
	kalshiMarkets, err := fetchKalshi(ctx, client, cfg.KalshiMarketsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch venue B markets: %w", err)
	}

	return pairMarkets(pmMarkets, kalshiMarkets, cfg), nil
}

func fetchPM(ctx context.Context, client *resty.Client, url string) ([]pmMarket, error) {
	if url == "" {
		return nil, nil
	}
	var out []pmMarket
	resp, err := client.R().SetContext(ctx).SetResult(&out).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return out, nil
}

func fetchKalshi(ctx context.Context, client *resty.Client, url string) ([]kalshiMarket, error) {
	if url == "" {
		return nil, nil
	}
	var body struct {
		Markets []kalshiMarket `json:"markets"`
	}
	resp, err := client.R().SetContext(ctx).SetResult(&body).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return body.Markets, nil
}

// pairMarkets keeps the best cross-venue title match above TitleSimMin and
// within TimeWindowHours of each other's close time, per §6.
func pairMarkets(pm []pmMarket, kalshi []kalshiMarket, cfg Config) []types.MarketPair {
	var pairs []types.MarketPair

	for _, p := range pm {
		bestScore := 0.0
		var best kalshiMarket
		found := false

		for _, k := range kalshi {
			score := Similarity(p.Question, k.Title)
			if score < cfg.TitleSimMin || score <= bestScore {
				continue
			}
			if !withinWindow(p.EndDateISO, k.CloseTime, cfg.TimeWindowHours) {
				continue
			}
			bestScore = score
			best = k
			found = true
		}

		if !found {
			continue
		}

		yesTok, noTok := splitClobTokens(p.ClobTokenIds)
		if yesTok == "" || noTok == "" {
			continue
		}

		pairs = append(pairs, types.MarketPair{
			Title:       p.Question,
			YesToken:    yesTok,
			NoToken:     noTok,
			Ticker:      best.Ticker,
			TickerTitle: best.Title,
		})
	}

	return pairs
}

func withinWindow(aISO, bISO string, maxHours float64) bool {
	a, errA := time.Parse(time.RFC3339, aISO)
	b, errB := time.Parse(time.RFC3339, bISO)
	if errA != nil || errB != nil {
		return false
	}
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff.Hours() <= maxHours
}

// splitClobTokens parses the Gamma API's "[\"yesId\",\"noId\"]" string
// encoding of the two outcome token IDs, matching the teacher's
// ClobTokenIds field shape.
func splitClobTokens(raw string) (yes, no string) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) != 2 {
		return "", ""
	}
	return ids[0], ids[1]
}
