package dexcom

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/utils"
)

// wireReading is one element of the readings response. WT is the
// wall-clock timestamp in the vendor "/Date(ms)/" format; Trend is a
// known name on current servers but occasionally a raw integer.
type wireReading struct {
	WT    string     `json:"WT"`
	Value float64    `json:"Value"`
	Trend trendField `json:"Trend"`
}

func (w wireReading) toReading() (domain.Reading, bool) {
	ts, err := utils.ParseShareTimestamp(w.WT)
	if err != nil {
		return domain.Reading{}, false
	}
	return domain.Reading{
		Value:     int(w.Value),
		Timestamp: ts,
		Trend:     domain.TrendCode(w.Trend).Normalize(),
	}, true
}

var trendNames = map[string]domain.TrendCode{
	"None":          domain.TrendNone,
	"DoubleUp":      domain.TrendDoubleUp,
	"SingleUp":      domain.TrendSingleUp,
	"FortyFiveUp":   domain.TrendFortyFiveUp,
	"Flat":          domain.TrendFlat,
	"FortyFiveDown": domain.TrendFortyFiveDown,
	"SingleDown":    domain.TrendSingleDown,
	"DoubleDown":    domain.TrendDoubleDown,
}

type trendField domain.TrendCode

func (t *trendField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))

	if strings.HasPrefix(raw, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		if code, ok := trendNames[name]; ok {
			*t = trendField(code)
		} else {
			// "NotComputable", "RateOutOfRange" and anything unknown.
			*t = trendField(domain.TrendNone)
		}
		return nil
	}

	code, err := strconv.Atoi(raw)
	if err != nil {
		*t = trendField(domain.TrendNone)
		return nil
	}
	*t = trendField(domain.TrendCode(code).Normalize())
	return nil
}
