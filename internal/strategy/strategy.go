package strategy

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// SideFor maps a crossover transition onto an order side. Anything that is
// not a positive transition sells.
func SideFor(transition int) Action {
	if transition > 0 {
		return Buy
	}
	return Sell
}
