package ws

import (
	"fmt"

	"github.com/valyala/fastjson"

	"barfeed/internal/model"
)

// Trade is one entry of an inbound trade message.
type Trade struct {
	Symbol string
	Price  float64
	Volume float64
	Time   string // raw feed timestamp, kept verbatim
}

// Message is a decoded inbound feed message. Only "trade" messages carry
// Trades; every other type is reported and ignored.
type Message struct {
	Type   string
	Trades []Trade

	// Invalid counts trade entries that could not be decoded.
	Invalid int
}

// subscribeMsg is sent once after connecting.
type subscribeMsg struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// field returns the first of keys present on v.
func field(v *fastjson.Value, keys ...string) *fastjson.Value {
	for _, k := range keys {
		if f := v.Get(k); f != nil {
			return f
		}
	}
	return nil
}

// ParseMessage decodes payload with p. A payload that is not a JSON object
// with a string "type", or a trade message without a data array, fails with
// model.ErrMalformedRecord.
func ParseMessage(p *fastjson.Parser, payload []byte) (Message, error) {
	val, err := p.ParseBytes(payload)
	if err != nil {
		return Message{}, fmt.Errorf("ws: parse: %v: %w", err, model.ErrMalformedRecord)
	}
	if val.Type() != fastjson.TypeObject {
		return Message{}, fmt.Errorf("ws: message is %s, not an object: %w", val.Type(), model.ErrMalformedRecord)
	}

	typ := val.Get("type")
	if typ == nil || typ.Type() != fastjson.TypeString {
		return Message{}, fmt.Errorf("ws: message without type: %w", model.ErrMalformedRecord)
	}
	msg := Message{Type: string(typ.GetStringBytes())}
	if msg.Type != "trade" {
		return msg, nil
	}

	data := val.Get("data")
	if data == nil || data.Type() != fastjson.TypeArray {
		return Message{}, fmt.Errorf("ws: trade message without data array: %w", model.ErrMalformedRecord)
	}
	entries, _ := data.Array()
	for _, e := range entries {
		t, ok := parseTrade(e)
		if !ok {
			msg.Invalid++
			continue
		}
		msg.Trades = append(msg.Trades, t)
	}
	return msg, nil
}

func parseTrade(e *fastjson.Value) (Trade, bool) {
	if e.Type() != fastjson.TypeObject {
		return Trade{}, false
	}

	pv := field(e, "p", "price")
	if pv == nil {
		return Trade{}, false
	}
	price, err := pv.Float64()
	if err != nil {
		return Trade{}, false
	}

	var volume float64
	if vv := field(e, "v", "volume"); vv != nil {
		if volume, err = vv.Float64(); err != nil {
			return Trade{}, false
		}
	}

	tv := field(e, "t", "time")
	if tv == nil {
		return Trade{}, false
	}
	var ts string
	switch tv.Type() {
	case fastjson.TypeNumber:
		ts = string(tv.MarshalTo(nil))
	case fastjson.TypeString:
		ts = string(tv.GetStringBytes())
	default:
		return Trade{}, false
	}

	return Trade{
		Symbol: string(e.GetStringBytes("s")),
		Price:  price,
		Volume: volume,
		Time:   ts,
	}, true
}

// TradeBar maps a trade to a degenerate bar: open, high, low and close are
// all the trade price.
func TradeBar(t Trade) model.Bar {
	return model.Bar{
		Timestamp: t.Time,
		Open:      t.Price,
		High:      t.Price,
		Low:       t.Price,
		Close:     t.Price,
		Volume:    t.Volume,
	}
}
