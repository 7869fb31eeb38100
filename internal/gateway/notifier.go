package gateway

import (
	"encoding/json"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Notifier pushes applied chart updates into the hub. It satisfies the
// controller's notifier contract.
type Notifier struct {
	Hub *Hub
}

// LiveCandle broadcasts the bar revision and the refreshed legend line.
func (n *Notifier) LiveCandle(symbol, interval string, u model.CandleUpdate, legend string) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	n.Hub.Broadcast("candle:"+symbol+":"+interval, data)

	if legend != "" {
		lg, _ := json.Marshal(map[string]string{"legend": legend})
		n.Hub.Broadcast("legend:"+symbol, lg)
	}
}
